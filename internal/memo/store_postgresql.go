package memo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sumcache/internal/fingerprint"
)

// PostgreSQLStore stores records in PostgreSQL.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the records table if needed.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+TableName+` (
			fingerprint TEXT PRIMARY KEY,
			raw_input JSONB NOT NULL,
			result BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", TableName, err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// FindByFingerprint returns the record for fp.
func (s *PostgreSQLStore) FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (*Record, error) {
	var (
		raw       []byte
		result    int64
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		"SELECT raw_input, result, created_at FROM "+TableName+" WHERE fingerprint = $1", fp.String(),
	).Scan(&raw, &result, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query record: %w", err)
	}

	numbers, err := unmarshalRawInput(raw)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &Record{
		Fingerprint: fp,
		RawInput:    numbers,
		Result:      result,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// InsertIfAbsent inserts rec with ON CONFLICT DO NOTHING and re-reads the winner when
// another transaction committed first.
func (s *PostgreSQLStore) InsertIfAbsent(ctx context.Context, rec *Record) (InsertResult, error) {
	if err := validateRecord(rec); err != nil {
		return InsertResult{}, err
	}
	raw, err := marshalRawInput(rec.RawInput)
	if err != nil {
		return InsertResult{}, err
	}

	cmd, err := s.pool.Exec(ctx, `
		INSERT INTO `+TableName+` (fingerprint, raw_input, result, created_at)
		VALUES ($1, $2::jsonb, $3, $4)
		ON CONFLICT (fingerprint) DO NOTHING
	`, rec.Fingerprint.String(), raw, rec.Result, createdAtOrNow(rec.CreatedAt))
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert record: %w", err)
	}
	if cmd.RowsAffected() > 0 {
		return InsertResult{Inserted: true}, nil
	}

	// ON CONFLICT waits for the competing transaction, so the row is visible here.
	existing, err := s.FindByFingerprint(ctx, rec.Fingerprint)
	if err != nil {
		return InsertResult{}, fmt.Errorf("read conflicting record: %w", err)
	}
	return InsertResult{Existing: existing}, nil
}

// Close is a no-op; pool lifecycle is managed by storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
