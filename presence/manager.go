package presence

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Manager routes every operation to the hub owning the subject id. Hubs are
// created lazily on first reference and live for the rest of the process.
type Manager struct {
	mu    sync.Mutex
	hubs  map[string]*Hub
	store SnapshotStore

	onBroadcast func(subjectID string, payload []byte)
}

func NewManager(store SnapshotStore) *Manager {
	return &Manager{
		hubs:  make(map[string]*Hub),
		store: store,
	}
}

// SetBroadcastHook installs a relay callback invoked after every local
// broadcast. Must be called before the first hub is created.
func (m *Manager) SetBroadcastHook(fn func(subjectID string, payload []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onBroadcast = fn
}

// Hub returns the hub instance for a subject, creating it on first reference.
func (m *Manager) Hub(subjectID string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[subjectID]
	if !ok {
		hub = newHub(subjectID, m.store, m.onBroadcast)
		m.hubs[subjectID] = hub
		logrus.Debugf("[MANAGER] Created hub for subject %s", subjectID)
	}
	return hub
}

// Ingest routes an update to the owning hub. Implements the ingest sink the
// gateway adapter delivers into.
func (m *Manager) Ingest(ctx context.Context, snapshot *Snapshot) error {
	return m.Hub(snapshot.SubjectID).Update(ctx, snapshot)
}

// Get returns the current snapshot for a subject, or nil when none exists.
func (m *Manager) Get(ctx context.Context, subjectID string) (*Snapshot, error) {
	return m.Hub(subjectID).Get(ctx)
}

// ForwardLocal delivers a payload broadcast by another server instance to the
// local subscribers of that subject. Subjects nobody watches here are
// skipped; a relay is not a reason to create a hub.
func (m *Manager) ForwardLocal(subjectID string, payload []byte) {
	m.mu.Lock()
	hub, ok := m.hubs[subjectID]
	m.mu.Unlock()
	if ok {
		hub.Forward(payload)
	}
}

// Close stops every hub goroutine.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, hub := range m.hubs {
		hub.Close()
	}
	m.hubs = make(map[string]*Hub)
}
