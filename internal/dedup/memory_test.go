package dedup

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryStore_Admit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	outcome, err := store.Admit(ctx, "RLS-1", "fp-1")
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if outcome != Accepted {
		t.Errorf("first Admit() = %v, want Accepted", outcome)
	}

	outcome, err = store.Admit(ctx, "RLS-1", "fp-1")
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if outcome != Duplicate {
		t.Errorf("second Admit() = %v, want Duplicate", outcome)
	}
}

func TestMemoryStore_ScopedPerRelease(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if outcome, _ := store.Admit(ctx, "RLS-1", "fp-1"); outcome != Accepted {
		t.Fatalf("Admit(RLS-1) = %v, want Accepted", outcome)
	}
	if outcome, _ := store.Admit(ctx, "RLS-2", "fp-1"); outcome != Accepted {
		t.Errorf("same fingerprint under another release should be Accepted, got %v", outcome)
	}
}

func TestMemoryStore_ConcurrentAdmit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const callers = 100
	var wg sync.WaitGroup
	accepted := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := store.Admit(ctx, "RLS-1", "contested")
			if err != nil {
				t.Errorf("Admit() error = %v", err)
				return
			}
			if outcome == Accepted {
				accepted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(accepted)

	if n := len(accepted); n != 1 {
		t.Errorf("concurrent Admit accepted %d callers, want exactly 1", n)
	}
}

func TestOutcome_String(t *testing.T) {
	if Accepted.String() != "accepted" || Duplicate.String() != "duplicate" {
		t.Errorf("Outcome strings: %q, %q", Accepted.String(), Duplicate.String())
	}
}
