package job

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/ahmethakanbesel/jobmanager/internal/job"
)

var _ domain.Store = (*MemoryStore)(nil)

// MemoryStore keeps records in a map guarded by one RWMutex. Records are
// copied on the way in and out so callers never alias stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*domain.Record)}
}

func (m *MemoryStore) Store(_ context.Context, id string, rec *domain.Record) error {
	if id == "" {
		return fmt.Errorf("store job: empty id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id] = rec.Clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, p domain.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Apply(rec)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Record, 0, len(m.jobs))
	for _, rec := range m.jobs {
		out = append(out, *rec.Clone())
	}
	return out, nil
}
