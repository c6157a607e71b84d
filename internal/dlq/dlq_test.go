package dlq

import (
	"context"
	"errors"
	"testing"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

func TestMemoryWriter(t *testing.T) {
	w := &MemoryWriter{}
	ctx := context.Background()

	sig := &models.UnifiedSignal{
		SignalID:          "sig-1",
		SignalVersion:     "v1",
		ReleaseExternalID: "RLS-1",
	}
	cause := errors.New("connection reset")

	if err := w.Write(ctx, sig, cause, "persist_failed", 4); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries := w.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries() = %d, want 1", len(entries))
	}

	e := entries[0]
	if e.Signal.SignalID != "sig-1" {
		t.Errorf("SignalID = %q", e.Signal.SignalID)
	}
	if e.Error != "connection reset" {
		t.Errorf("Error = %q", e.Error)
	}
	if e.Reason != "persist_failed" {
		t.Errorf("Reason = %q", e.Reason)
	}
	if e.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", e.Attempts)
	}
	if e.Timestamp.IsZero() || e.LastAttempt.IsZero() {
		t.Error("timestamps should be set")
	}

	// Entries returns a copy; mutating it must not touch the buffer.
	entries[0].Reason = "tampered"
	if w.Entries()[0].Reason != "persist_failed" {
		t.Error("Entries() should return a copy")
	}
}

func TestNopWriter(t *testing.T) {
	if err := (NopWriter{}).Write(context.Background(), nil, errors.New("x"), "r", 1); err != nil {
		t.Errorf("NopWriter.Write() error = %v", err)
	}
}
