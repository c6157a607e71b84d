package pipeline

import (
	"sync"
	"testing"

	"github.com/shiplog-systems/shiplog-signals/internal/adapter"
	"github.com/shiplog-systems/shiplog-signals/internal/dedup"
	"github.com/shiplog-systems/shiplog-signals/internal/persist"
)

func newTestManager() *Manager {
	return NewManager(Deps{
		Registry: adapter.NewRegistry(adapter.GitHubAdapter{}),
		Guard:    dedup.NewMemoryStore(),
		Store:    persist.NewMemoryStore(),
	})
}

func TestManager_Get(t *testing.T) {
	m := newTestManager()

	a := m.Get("RLS-1")
	if a.ReleaseExternalID() != "RLS-1" {
		t.Errorf("ReleaseExternalID() = %q", a.ReleaseExternalID())
	}
	if m.Get("RLS-1") != a {
		t.Error("Get should return the same pipeline for the same release")
	}
	if m.Get("RLS-2") == a {
		t.Error("different releases should get different pipelines")
	}

	if got := m.Releases(); len(got) != 2 {
		t.Errorf("Releases() = %v, want 2 entries", got)
	}
}

func TestManager_ConcurrentGet(t *testing.T) {
	m := newTestManager()

	const callers = 50
	var wg sync.WaitGroup
	pipelines := make([]*Pipeline, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pipelines[i] = m.Get("RLS-1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if pipelines[i] != pipelines[0] {
			t.Fatal("concurrent Get must converge on one pipeline per release")
		}
	}
}
