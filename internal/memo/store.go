// Package memo memoizes integer sums in a durable table keyed by input fingerprint.
package memo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sumcache/internal/fingerprint"
)

// TableName is the table (or collection) every backend stores records in.
const TableName = "sum_records"

var (
	// ErrNotFound indicates no record exists for a fingerprint.
	ErrNotFound = errors.New("record not found")

	// ErrOverflow indicates the sum does not fit in an int64. Nothing is persisted.
	ErrOverflow = errors.New("sum overflows int64")

	// ErrStorageUnavailable wraps failures talking to the durable store. Callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Record is one memoized computation. A record is written once and never modified.
type Record struct {
	Fingerprint fingerprint.Fingerprint
	// RawInput is the list as submitted by the request that committed the record.
	RawInput  []int64
	Result    int64
	CreatedAt time.Time
}

// InsertResult reports the outcome of Store.InsertIfAbsent.
type InsertResult struct {
	// Inserted is true when this call created the record.
	Inserted bool
	// Existing holds the committed record when Inserted is false.
	Existing *Record
}

// Store persists records keyed uniquely by fingerprint.
// Implementations must be safe for concurrent use.
type Store interface {
	// FindByFingerprint returns ErrNotFound when no record exists.
	FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (*Record, error)

	// InsertIfAbsent atomically creates rec unless a record with the same fingerprint exists,
	// in which case the existing record is returned and nothing is written.
	InsertIfAbsent(ctx context.Context, rec *Record) (InsertResult, error)

	Close() error
}

func validateRecord(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if !fingerprint.Valid(rec.Fingerprint.String()) {
		return fmt.Errorf("invalid fingerprint %q", rec.Fingerprint)
	}
	return nil
}

func marshalRawInput(numbers []int64) ([]byte, error) {
	if numbers == nil {
		numbers = []int64{}
	}
	b, err := json.Marshal(numbers)
	if err != nil {
		return nil, fmt.Errorf("marshal raw input: %w", err)
	}
	return b, nil
}

func unmarshalRawInput(raw []byte) ([]int64, error) {
	if len(raw) == 0 {
		return []int64{}, nil
	}
	var numbers []int64
	if err := json.Unmarshal(raw, &numbers); err != nil {
		return nil, fmt.Errorf("unmarshal raw input: %w", err)
	}
	if numbers == nil {
		numbers = []int64{}
	}
	return numbers, nil
}

func cloneRecord(src *Record) *Record {
	dst := *src
	dst.RawInput = append([]int64{}, src.RawInput...)
	return &dst
}

func createdAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
