package store

import (
	"context"
	"sort"
	"sync"

	"releasesync/internal/release"
)

// Memory is an in-process item store used for dry runs and tests.
type Memory struct {
	mu    sync.RWMutex
	items map[string]release.Record
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]release.Record)}
}

func (m *Memory) Get(ctx context.Context, id string) (*release.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) Put(ctx context.Context, rec release.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[rec.ID] = rec
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// All returns the stored records ordered by id.
func (m *Memory) All() []release.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]release.Record, 0, len(m.items))
	for _, rec := range m.items {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
