package memo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"sumcache/internal/fingerprint"
)

type mongoRecordDocument struct {
	Fingerprint string    `bson:"_id"`
	RawInput    []int64   `bson:"raw_input"`
	Result      int64     `bson:"result"`
	CreatedAt   time.Time `bson:"created_at"`
}

// MongoDBStore stores records in MongoDB, using the fingerprint as the document _id.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore returns a store backed by the records collection.
// The _id index MongoDB maintains on every collection enforces fingerprint uniqueness.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBStore{collection: database.Collection(TableName)}, nil
}

// FindByFingerprint returns the record for fp.
func (s *MongoDBStore) FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (*Record, error) {
	var doc mongoRecordDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": fp.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query record: %w", err)
	}
	return doc.toRecord(), nil
}

// InsertIfAbsent inserts rec; a duplicate key error means another writer won.
func (s *MongoDBStore) InsertIfAbsent(ctx context.Context, rec *Record) (InsertResult, error) {
	if err := validateRecord(rec); err != nil {
		return InsertResult{}, err
	}

	raw := rec.RawInput
	if raw == nil {
		raw = []int64{}
	}
	doc := mongoRecordDocument{
		Fingerprint: rec.Fingerprint.String(),
		RawInput:    raw,
		Result:      rec.Result,
		CreatedAt:   createdAtOrNow(rec.CreatedAt),
	}
	_, err := s.collection.InsertOne(ctx, doc)
	if err == nil {
		return InsertResult{Inserted: true}, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return InsertResult{}, fmt.Errorf("insert record: %w", err)
	}

	existing, err := s.FindByFingerprint(ctx, rec.Fingerprint)
	if err != nil {
		return InsertResult{}, fmt.Errorf("read conflicting record: %w", err)
	}
	return InsertResult{Existing: existing}, nil
}

// Close is a no-op; Mongo client lifecycle is managed by storage layer.
func (s *MongoDBStore) Close() error {
	return nil
}

func (d *mongoRecordDocument) toRecord() *Record {
	raw := d.RawInput
	if raw == nil {
		raw = []int64{}
	}
	return &Record{
		Fingerprint: fingerprint.Fingerprint(d.Fingerprint),
		RawInput:    raw,
		Result:      d.Result,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}
