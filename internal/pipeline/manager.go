package pipeline

import "sync"

// Manager hands out one Pipeline per release context, constructed lazily.
// All pipelines share the same registry, guard, store, trail, and DLQ, so
// the dedup view and retry policy are uniform across releases.
type Manager struct {
	deps Deps

	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

// NewManager creates a manager over the shared collaborators.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:      deps,
		pipelines: make(map[string]*Pipeline),
	}
}

// Get returns the pipeline bound to the release, creating it on first use.
func (m *Manager) Get(releaseExternalID string) *Pipeline {
	m.mu.RLock()
	p, ok := m.pipelines[releaseExternalID]
	m.mu.RUnlock()
	if ok {
		return p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pipelines[releaseExternalID]; ok {
		return p
	}
	p = New(releaseExternalID, m.deps)
	m.pipelines[releaseExternalID] = p
	return p
}

// Releases returns the release IDs with active pipelines.
func (m *Manager) Releases() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.pipelines))
	for id := range m.pipelines {
		out = append(out, id)
	}
	return out
}
