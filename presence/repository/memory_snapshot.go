package repository

import (
	"context"
	"sync"

	"github.com/NeetCrusader/rich-presence/presence"
)

// MemorySnapshotStore implements presence.SnapshotStore in memory. Used when
// no durable backend is configured, and in tests.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	store map[string]*presence.Snapshot
}

// NewMemorySnapshotStore creates a new MemorySnapshotStore instance.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		store: make(map[string]*presence.Snapshot),
	}
}

func (m *MemorySnapshotStore) Save(ctx context.Context, snapshot *presence.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[snapshot.SubjectID] = snapshot
	return nil
}

func (m *MemorySnapshotStore) Get(ctx context.Context, subjectID string) (*presence.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[subjectID]
	if !ok {
		return nil, nil
	}
	return s, nil
}
