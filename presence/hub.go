package presence

import (
	"context"
	"encoding/json"

	pkgError "github.com/NeetCrusader/rich-presence/pkg/error"
	"github.com/sirupsen/logrus"
)

// Session is one live push connection registered with a hub. Send must be
// safe to call from the hub goroutine.
type Session interface {
	Send(payload []byte) error
}

// NoDataPayload is the message a subscriber receives when the subject has no
// stored snapshot yet. Absence is a normal state, not a failure.
var NoDataPayload = []byte(`{"error":"No presence data"}`)

type updateRequest struct {
	ctx      context.Context
	snapshot *Snapshot
	done     chan error
}

type getRequest struct {
	reply chan *Snapshot
}

// Hub is the exclusive owner of one subject's snapshot and its live
// connections. All operations funnel through a single goroutine, so at most
// one runs at a time per subject; hubs for different subjects are fully
// independent.
type Hub struct {
	subjectID string
	store     SnapshotStore

	register   chan Session
	unregister chan Session
	updates    chan updateRequest
	forwards   chan []byte
	gets       chan getRequest
	quit       chan struct{}

	// onBroadcast, when set, receives every locally broadcast payload so the
	// transport layer can relay it to other server instances.
	onBroadcast func(subjectID string, payload []byte)

	// owned by the run goroutine
	sessions map[Session]struct{}
	current  *Snapshot
}

func newHub(subjectID string, store SnapshotStore, onBroadcast func(string, []byte)) *Hub {
	h := &Hub{
		subjectID:   subjectID,
		store:       store,
		register:    make(chan Session),
		unregister:  make(chan Session),
		updates:     make(chan updateRequest),
		forwards:    make(chan []byte),
		gets:        make(chan getRequest),
		quit:        make(chan struct{}),
		onBroadcast: onBroadcast,
		sessions:    make(map[Session]struct{}),
	}
	go h.run()
	return h
}

// SubjectID returns the subject this hub owns.
func (h *Hub) SubjectID() string {
	return h.subjectID
}

// Get returns the current snapshot, or nil when no data exists yet.
func (h *Hub) Get(ctx context.Context) (*Snapshot, error) {
	req := getRequest{reply: make(chan *Snapshot, 1)}
	select {
	case h.gets <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case snapshot := <-req.reply:
		return snapshot, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Update replaces the current snapshot, persists it durably and broadcasts it
// to every registered session. A failed durable write aborts the update and
// is reported to the caller; broadcast delivery is best-effort.
func (h *Hub) Update(ctx context.Context, snapshot *Snapshot) error {
	req := updateRequest{ctx: ctx, snapshot: snapshot, done: make(chan error, 1)}
	select {
	case h.updates <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds a session and immediately sends it the current snapshot or
// the no-data marker, before any future broadcast can reach it.
func (h *Hub) Register(sess Session) {
	h.register <- sess
}

// Unregister removes a session. Unknown sessions are ignored.
func (h *Hub) Unregister(sess Session) {
	h.unregister <- sess
}

// Forward pushes an already-serialized payload to local sessions without
// touching the snapshot. Used for updates relayed from other server
// instances.
func (h *Hub) Forward(payload []byte) {
	h.forwards <- payload
}

// Close stops the hub goroutine. Registered sessions are not closed; the
// transport owns their lifecycle.
func (h *Hub) Close() {
	close(h.quit)
}

func (h *Hub) run() {
	h.seed()

	for {
		select {
		case sess := <-h.register:
			h.sessions[sess] = struct{}{}
			logrus.Debugf("[HUB] %s: session registered (%d live)", h.subjectID, len(h.sessions))
			h.sendInitial(sess)

		case sess := <-h.unregister:
			delete(h.sessions, sess)
			logrus.Debugf("[HUB] %s: session unregistered (%d live)", h.subjectID, len(h.sessions))

		case req := <-h.updates:
			req.done <- h.applyUpdate(req.ctx, req.snapshot)

		case payload := <-h.forwards:
			h.broadcast(payload, false)

		case req := <-h.gets:
			req.reply <- h.current

		case <-h.quit:
			return
		}
	}
}

// seed loads the persisted snapshot on cold start so reads and initial
// subscriber messages see data from before a restart.
func (h *Hub) seed() {
	snapshot, err := h.store.Get(context.Background(), h.subjectID)
	if err != nil {
		logrus.Errorf("[HUB] %s: failed to seed from store: %v", h.subjectID, err)
		return
	}
	h.current = snapshot
}

func (h *Hub) applyUpdate(ctx context.Context, snapshot *Snapshot) error {
	if err := h.store.Save(ctx, snapshot); err != nil {
		logrus.Errorf("[HUB] %s: durable write failed: %v", h.subjectID, err)
		return pkgError.PersistenceError("failed to persist presence snapshot: " + err.Error())
	}

	h.current = snapshot

	payload, err := json.Marshal(snapshot)
	if err != nil {
		logrus.Errorf("[HUB] %s: marshal error: %v", h.subjectID, err)
		return nil
	}

	h.broadcast(payload, true)
	return nil
}

// broadcast pushes one payload to every session, pruning any whose send
// fails. Each session receives the identical serialized bytes.
func (h *Hub) broadcast(payload []byte, relay bool) {
	for sess := range h.sessions {
		if err := sess.Send(payload); err != nil {
			logrus.Debugf("[HUB] %s: send failed, pruning session: %v", h.subjectID, err)
			delete(h.sessions, sess)
		}
	}
	if relay && h.onBroadcast != nil {
		h.onBroadcast(h.subjectID, payload)
	}
}

func (h *Hub) sendInitial(sess Session) {
	payload := NoDataPayload
	if h.current != nil {
		data, err := json.Marshal(h.current)
		if err != nil {
			logrus.Errorf("[HUB] %s: marshal error: %v", h.subjectID, err)
			return
		}
		payload = data
	}
	if err := sess.Send(payload); err != nil {
		delete(h.sessions, sess)
	}
}
