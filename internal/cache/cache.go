// Package cache provides the hot record cache that sits in front of the durable sum store.
// Records are immutable once committed, so entries never need invalidation.
package cache

import (
	"context"
	"strconv"

	"sumcache/internal/fingerprint"
)

// Cache maps fingerprints to committed sums.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns false when the fingerprint is not cached.
	Get(ctx context.Context, fp fingerprint.Fingerprint) (int64, bool, error)

	// Set stores a committed result.
	Set(ctx context.Context, fp fingerprint.Fingerprint, result int64) error

	// Close releases any resources held by the cache.
	Close() error
}

func encodeResult(result int64) string {
	return strconv.FormatInt(result, 10)
}

func decodeResult(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
