//go:build integration

// Package dbassert reads persisted sum records directly from the databases for test assertions.
package dbassert

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const recordsTable = "sum_records"

// Record mirrors one persisted row or document.
type Record struct {
	Fingerprint string
	RawInput    []int64
	Result      int64
	CreatedAt   time.Time
}

// CountPostgreSQL returns how many rows exist for fingerprint.
func CountPostgreSQL(t *testing.T, pool *pgxpool.Pool, fingerprint string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var n int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+recordsTable+` WHERE fingerprint = $1`, fingerprint).Scan(&n)
	require.NoError(t, err, "failed to count records")
	return n
}

// QueryPostgreSQL loads the row for fingerprint.
func QueryPostgreSQL(t *testing.T, pool *pgxpool.Pool, fingerprint string) Record {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := Record{Fingerprint: fingerprint}
	err := pool.QueryRow(ctx,
		`SELECT raw_input, result, created_at FROM `+recordsTable+` WHERE fingerprint = $1`,
		fingerprint,
	).Scan(&rec.RawInput, &rec.Result, &rec.CreatedAt)
	require.NoError(t, err, "failed to query record")
	return rec
}

// CountMongoDB returns how many documents exist for fingerprint.
func CountMongoDB(t *testing.T, db *mongo.Database, fingerprint string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := db.Collection(recordsTable).CountDocuments(ctx, bson.D{{Key: "_id", Value: fingerprint}})
	require.NoError(t, err, "failed to count documents")
	return int(n)
}

// QueryMongoDB loads the document for fingerprint.
func QueryMongoDB(t *testing.T, db *mongo.Database, fingerprint string) Record {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc struct {
		ID        string    `bson:"_id"`
		RawInput  []int64   `bson:"raw_input"`
		Result    int64     `bson:"result"`
		CreatedAt time.Time `bson:"created_at"`
	}
	err := db.Collection(recordsTable).FindOne(ctx, bson.D{{Key: "_id", Value: fingerprint}}).Decode(&doc)
	require.NoError(t, err, "failed to query document")
	return Record{Fingerprint: doc.ID, RawInput: doc.RawInput, Result: doc.Result, CreatedAt: doc.CreatedAt}
}
