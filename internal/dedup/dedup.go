// Package dedup implements the idempotency guard: an atomic
// check-and-insert over signal fingerprints.
//
// The store is the only shared mutable state in the pipeline. Production
// deployments back it with Redis so every pipeline instance shares one dedup
// view; the in-memory variant serves tests and single-instance development.
package dedup

import "context"

// Outcome is the result of an admission check.
type Outcome int

const (
	// Accepted means the fingerprint was not seen before and has now
	// been recorded.
	Accepted Outcome = iota

	// Duplicate means the fingerprint was already recorded; the signal
	// must be discarded, not persisted.
	Duplicate
)

func (o Outcome) String() string {
	if o == Duplicate {
		return "duplicate"
	}
	return "accepted"
}

// Store is the deduplication store. Admit must be a single atomic
// check-and-insert: two concurrent deliveries of the same logical event must
// never both observe Accepted.
type Store interface {
	// Admit records the fingerprint for the release if unseen and
	// reports whether it was new. Errors indicate store unavailability,
	// not duplication.
	Admit(ctx context.Context, releaseExternalID, fingerprint string) (Outcome, error)

	// Ping reports store reachability for readiness checks.
	Ping(ctx context.Context) error

	Close() error
}
