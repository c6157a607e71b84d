// Package dlq dead-letters signals that were accepted by the idempotency
// guard but could not be persisted.
//
// Losing an accepted-but-unpersisted signal would be indistinguishable from
// never having received it, while its fingerprint stays recorded: future
// redeliveries of the same logical event would be dropped as duplicates
// forever. Dead-lettering keeps those signals recoverable for manual
// reconciliation.
package dlq

import (
	"context"
	"sync"
	"time"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// DeadSignal is one dead-lettered entry.
type DeadSignal struct {
	Timestamp   time.Time             `json:"timestamp"`
	Signal      *models.UnifiedSignal `json:"signal"`
	Error       string                `json:"error"`
	Reason      string                `json:"reason"`
	Attempts    int                   `json:"attempts"`
	LastAttempt time.Time             `json:"last_attempt"`
}

// Writer records signals that exhausted their persistence retries.
type Writer interface {
	Write(ctx context.Context, signal *models.UnifiedSignal, cause error, reason string, attempts int) error
}

// NopWriter discards entries; used when the DLQ is disabled.
type NopWriter struct{}

// Write implements Writer.
func (NopWriter) Write(context.Context, *models.UnifiedSignal, error, string, int) error {
	return nil
}

// MemoryWriter buffers entries in process. Test double for the JetStream
// backend.
type MemoryWriter struct {
	mu      sync.Mutex
	entries []DeadSignal
}

// Write implements Writer.
func (w *MemoryWriter) Write(_ context.Context, signal *models.UnifiedSignal, cause error, reason string, attempts int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now().UTC()
	w.entries = append(w.entries, DeadSignal{
		Timestamp:   now,
		Signal:      signal,
		Error:       cause.Error(),
		Reason:      reason,
		Attempts:    attempts,
		LastAttempt: now,
	})
	return nil
}

// Entries returns a copy of the buffered entries.
func (w *MemoryWriter) Entries() []DeadSignal {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]DeadSignal, len(w.entries))
	copy(out, w.entries)
	return out
}
