// Package persist durably stores accepted unified signals.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// ErrDuplicateSignal is returned when a signal's fingerprint already exists
// for its release. Under normal operation the dedup guard catches this
// first; the store-level check is the backstop for guard races and expired
// dedup entries.
var ErrDuplicateSignal = errors.New("signal version already persisted for release")

// ErrSignalNotFound is returned by lookups that match nothing.
var ErrSignalNotFound = errors.New("signal not found")

// PersistenceError reports a retryable store failure (unavailability,
// write timeout). The pipeline retries these with backoff and dead-letters
// the signal when retries are exhausted.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is (or wraps) a PersistenceError.
func IsRetryable(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// SignalStore is the durable store for accepted signals.
type SignalStore interface {
	// Insert writes one accepted signal. Returns ErrDuplicateSignal if
	// the (release, fingerprint) pair already exists, or a
	// *PersistenceError on store failure.
	Insert(ctx context.Context, signal *models.UnifiedSignal) error

	// GetByFingerprint returns the persisted signal for a release and
	// fingerprint, or ErrSignalNotFound.
	GetByFingerprint(ctx context.Context, releaseExternalID, fingerprint string) (*models.UnifiedSignal, error)

	// ListByRelease returns all persisted signals for a release, newest
	// first. This is the read surface the aggregation layer consumes.
	ListByRelease(ctx context.Context, releaseExternalID string) ([]*models.UnifiedSignal, error)

	// Count returns the number of persisted signals for a release.
	Count(ctx context.Context, releaseExternalID string) (int, error)

	// Ping reports store reachability for readiness checks.
	Ping(ctx context.Context) error

	Close()
}
