package persist

import (
	"context"
	"sort"
	"sync"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// MemoryStore is an in-process signal store for tests and development.
// It mirrors the Postgres store's unique (release, fingerprint) semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	byKey   map[string]*models.UnifiedSignal
	ordered []*models.UnifiedSignal

	// failNext, when >0, makes the next inserts fail with a retryable
	// PersistenceError. Tests use it to exercise retry and dead-letter
	// paths.
	failNext int
}

// NewMemoryStore creates an empty in-memory signal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[string]*models.UnifiedSignal)}
}

func key(releaseExternalID, fingerprint string) string {
	return releaseExternalID + ":" + fingerprint
}

// FailNext makes the next n Insert calls fail with a retryable error.
func (s *MemoryStore) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Insert implements SignalStore.
func (s *MemoryStore) Insert(_ context.Context, signal *models.UnifiedSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext > 0 {
		s.failNext--
		return &PersistenceError{Op: "insert", Err: context.DeadlineExceeded}
	}

	k := key(signal.ReleaseExternalID, signal.SignalVersion)
	if _, ok := s.byKey[k]; ok {
		return ErrDuplicateSignal
	}

	stored := *signal
	s.byKey[k] = &stored
	s.ordered = append(s.ordered, &stored)
	return nil
}

// GetByFingerprint implements SignalStore.
func (s *MemoryStore) GetByFingerprint(_ context.Context, releaseExternalID, fingerprint string) (*models.UnifiedSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.byKey[key(releaseExternalID, fingerprint)]
	if !ok {
		return nil, ErrSignalNotFound
	}
	out := *sig
	return &out, nil
}

// ListByRelease implements SignalStore.
func (s *MemoryStore) ListByRelease(_ context.Context, releaseExternalID string) ([]*models.UnifiedSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.UnifiedSignal
	for _, sig := range s.ordered {
		if sig.ReleaseExternalID == releaseExternalID {
			copied := *sig
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IngestedAt.After(out[j].IngestedAt)
	})
	return out, nil
}

// Count implements SignalStore.
func (s *MemoryStore) Count(_ context.Context, releaseExternalID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sig := range s.ordered {
		if sig.ReleaseExternalID == releaseExternalID {
			n++
		}
	}
	return n, nil
}

// Ping implements SignalStore.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements SignalStore.
func (s *MemoryStore) Close() {}
