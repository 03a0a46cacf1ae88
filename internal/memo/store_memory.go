package memo

import (
	"context"
	"sync"

	"sumcache/internal/fingerprint"
)

// MemoryStore keeps records in process memory.
// Data survives across requests but not process restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[fingerprint.Fingerprint]*Record
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[fingerprint.Fingerprint]*Record),
	}
}

// FindByFingerprint returns a copy of the stored record.
func (s *MemoryStore) FindByFingerprint(_ context.Context, fp fingerprint.Fingerprint) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.items[fp]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// InsertIfAbsent stores rec unless its fingerprint is already present.
func (s *MemoryStore) InsertIfAbsent(ctx context.Context, rec *Record) (InsertResult, error) {
	if err := validateRecord(rec); err != nil {
		return InsertResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return InsertResult{}, err
	}

	c := cloneRecord(rec)
	c.CreatedAt = createdAtOrNow(c.CreatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[c.Fingerprint]; ok {
		return InsertResult{Existing: cloneRecord(existing)}, nil
	}
	s.items[c.Fingerprint] = c
	return InsertResult{Inserted: true}, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close releases resources (no-op for memory store).
func (s *MemoryStore) Close() error {
	return nil
}
