package memo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sumcache/internal/fingerprint"
)

// SQLiteStore stores records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the records table if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + TableName + ` (
			fingerprint TEXT PRIMARY KEY,
			raw_input TEXT NOT NULL,
			result INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", TableName, err)
	}

	return &SQLiteStore{db: db}, nil
}

// FindByFingerprint returns the record for fp.
func (s *SQLiteStore) FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (*Record, error) {
	var (
		raw       string
		result    int64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT raw_input, result, created_at FROM "+TableName+" WHERE fingerprint = ?", fp.String(),
	).Scan(&raw, &result, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query record: %w", err)
	}

	numbers, err := unmarshalRawInput([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &Record{
		Fingerprint: fp,
		RawInput:    numbers,
		Result:      result,
		CreatedAt:   time.UnixMilli(createdAt).UTC(),
	}, nil
}

// InsertIfAbsent inserts rec, relying on the primary key to reject a second writer.
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, rec *Record) (InsertResult, error) {
	if err := validateRecord(rec); err != nil {
		return InsertResult{}, err
	}
	raw, err := marshalRawInput(rec.RawInput)
	if err != nil {
		return InsertResult{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO `+TableName+` (fingerprint, raw_input, result, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, rec.Fingerprint.String(), string(raw), rec.Result, createdAtOrNow(rec.CreatedAt).UnixMilli())
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return InsertResult{}, fmt.Errorf("read insert rows affected: %w", err)
	}
	if affected > 0 {
		return InsertResult{Inserted: true}, nil
	}

	existing, err := s.FindByFingerprint(ctx, rec.Fingerprint)
	if err != nil {
		return InsertResult{}, fmt.Errorf("read conflicting record: %w", err)
	}
	return InsertResult{Existing: existing}, nil
}

// Close is a no-op; DB lifecycle is managed by storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}
