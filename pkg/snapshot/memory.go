package snapshot

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Snapshot)}
}

func (m *MemoryStore) Save(_ context.Context, s Snapshot) error {
	if s.RouterID == "" {
		return ErrEmptyRouterID
	}
	s.Params = maps.Clone(s.Params)

	m.mu.Lock()
	m.items[s.RouterID] = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, routerID string) (Snapshot, error) {
	m.mu.RLock()
	s, ok := m.items[routerID]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	s.Params = maps.Clone(s.Params)
	return s, nil
}
