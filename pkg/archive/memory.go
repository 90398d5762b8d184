package archive

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/meshtower/pkg/topology"
)

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry // oldest first
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Save(ctx context.Context, source string, snap *topology.Snapshot) (*Entry, error) {
	e, err := newEntry(source, snap, m.now())
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.entries = append(m.entries, *e)
	m.mu.Unlock()
	return e, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Entry, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.entries {
		if m.entries[i].ID == id {
			e := m.entries[i]
			e.Data = slices.Clone(e.Data)
			return &e, nil
		}
	}
	return nil, notFound(id)
}

func (m *MemoryStore) List(ctx context.Context, limit int) ([]Entry, error) {
	limit = limitOrDefault(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, min(limit, len(m.entries)))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.entries[i]
		e.Data = nil
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
