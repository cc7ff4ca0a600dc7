package job

import (
	"context"
	"errors"
	"sync"
)

type mockStore struct {
	mu      sync.Mutex
	jobs    map[string]*Record
	updates []Patch

	storeErr  error
	getErr    error
	listErr   error
	updateErr error
}

func newMockStore() *mockStore {
	return &mockStore{jobs: make(map[string]*Record)}
}

func (m *mockStore) Store(_ context.Context, id string, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return m.storeErr
	}
	m.jobs[id] = rec.Clone()
	return nil
}

func (m *mockStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *mockStore) Update(_ context.Context, id string, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	rec, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	p.Apply(rec)
	m.updates = append(m.updates, p)
	return nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *mockStore) List(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Record, 0, len(m.jobs))
	for _, rec := range m.jobs {
		out = append(out, *rec.Clone())
	}
	return out, nil
}

func (m *mockStore) put(rec *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[rec.JobID] = rec.Clone()
}

func (m *mockStore) snapshot(id string) *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.jobs[id]
	if !ok {
		return nil
	}
	return rec.Clone()
}

// mockSpawner records spawns without running anything.
type mockSpawner struct {
	mu      sync.Mutex
	spawned []string
	active  map[string]bool
	err     error
}

func newMockSpawner() *mockSpawner {
	return &mockSpawner{active: make(map[string]bool)}
}

func (m *mockSpawner) Spawn(jobID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.spawned = append(m.spawned, jobID)
	return nil
}

func (m *mockSpawner) Active(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[jobID]
}

var errBackend = errors.New("backend unavailable")
