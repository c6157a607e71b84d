package dedup

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded in-process dedup store. It retains every
// fingerprint for the life of the process (no TTL) and does not share state
// across instances; use the Redis store in production.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryStore creates an empty in-memory dedup store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// Admit implements Store. The check and the insert happen under one lock.
func (s *MemoryStore) Admit(_ context.Context, releaseExternalID, fingerprint string) (Outcome, error) {
	key := releaseExternalID + ":" + fingerprint

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return Duplicate, nil
	}
	s.seen[key] = struct{}{}
	return Accepted, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// Len returns the number of recorded fingerprints across all releases.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
