package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	pkgError "github.com/NeetCrusader/rich-presence/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	data    map[string]*Snapshot
	failing bool
	saves   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]*Snapshot)}
}

func (f *fakeStore) Save(_ context.Context, snapshot *Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("disk full")
	}
	f.saves++
	f.data[snapshot.SubjectID] = snapshot
	return nil
}

func (f *fakeStore) Get(_ context.Context, subjectID string) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[subjectID], nil
}

type fakeSession struct {
	mu       sync.Mutex
	payloads [][]byte
	fail     bool
}

func (f *fakeSession) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.payloads = append(f.payloads, append([]byte(nil), payload...))
	return nil
}

func (f *fakeSession) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.payloads))
	copy(out, f.payloads)
	return out
}

func snap(subjectID string, status Status) *Snapshot {
	return &Snapshot{
		SubjectID:  subjectID,
		Status:     status,
		Activities: []Activity{},
		Badges:     []string{},
	}
}

// sync issues a Get purely to fence on the hub goroutine having processed
// every previously submitted operation.
func (h *Hub) sync(t *testing.T) {
	t.Helper()
	_, err := h.Get(context.Background())
	require.NoError(t, err)
}

func TestHub_LastWriteWins(t *testing.T) {
	hub := newHub("u1", newFakeStore(), nil)
	defer hub.Close()

	ctx := context.Background()
	require.NoError(t, hub.Update(ctx, snap("u1", StatusOnline)))
	require.NoError(t, hub.Update(ctx, snap("u1", StatusIdle)))
	require.NoError(t, hub.Update(ctx, snap("u1", StatusDoNotDisturb)))

	got, err := hub.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusDoNotDisturb, got.Status)
}

func TestHub_GetWithoutData(t *testing.T) {
	hub := newHub("u1", newFakeStore(), nil)
	defer hub.Close()

	got, err := hub.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHub_ColdStartSeedsFromStore(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Save(context.Background(), snap("u1", StatusIdle)))

	hub := newHub("u1", store, nil)
	defer hub.Close()

	got, err := hub.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusIdle, got.Status)
}

func TestHub_SubscriberGetsInitialNoDataMarker(t *testing.T) {
	hub := newHub("u1", newFakeStore(), nil)
	defer hub.Close()

	sess := &fakeSession{}
	hub.Register(sess)
	hub.sync(t)

	received := sess.received()
	require.Len(t, received, 1)
	assert.JSONEq(t, string(NoDataPayload), string(received[0]))
}

func TestHub_SubscriberGetsInitialThenUpdates(t *testing.T) {
	hub := newHub("u1", newFakeStore(), nil)
	defer hub.Close()

	ctx := context.Background()
	require.NoError(t, hub.Update(ctx, snap("u1", StatusOnline)))

	sess := &fakeSession{}
	hub.Register(sess)
	hub.sync(t)

	require.NoError(t, hub.Update(ctx, snap("u1", StatusIdle)))

	received := sess.received()
	require.Len(t, received, 2)

	var first, second Snapshot
	require.NoError(t, json.Unmarshal(received[0], &first))
	require.NoError(t, json.Unmarshal(received[1], &second))
	assert.Equal(t, StatusOnline, first.Status)
	assert.Equal(t, StatusIdle, second.Status)
}

func TestHub_BroadcastReachesAllSessions(t *testing.T) {
	hub := newHub("u1", newFakeStore(), nil)
	defer hub.Close()

	a, b := &fakeSession{}, &fakeSession{}
	hub.Register(a)
	hub.Register(b)
	hub.sync(t)

	require.NoError(t, hub.Update(context.Background(), snap("u1", StatusOnline)))

	assert.Len(t, a.received(), 2) // initial marker + update
	assert.Len(t, b.received(), 2)
}

func TestHub_FailingSessionIsPruned(t *testing.T) {
	hub := newHub("u1", newFakeStore(), nil)
	defer hub.Close()

	healthy := &fakeSession{}
	broken := &fakeSession{}
	hub.Register(healthy)
	hub.Register(broken)
	hub.sync(t)

	broken.mu.Lock()
	broken.fail = true
	broken.mu.Unlock()

	ctx := context.Background()
	require.NoError(t, hub.Update(ctx, snap("u1", StatusOnline)))
	require.NoError(t, hub.Update(ctx, snap("u1", StatusIdle)))

	// The healthy session saw both updates, the broken one nothing after
	// its initial message.
	assert.Len(t, healthy.received(), 3)
	assert.Len(t, broken.received(), 1)
}

func TestHub_UnregisteredSessionStopsReceiving(t *testing.T) {
	hub := newHub("u1", newFakeStore(), nil)
	defer hub.Close()

	sess := &fakeSession{}
	hub.Register(sess)
	hub.sync(t)

	hub.Unregister(sess)
	hub.sync(t)

	require.NoError(t, hub.Update(context.Background(), snap("u1", StatusOnline)))
	assert.Len(t, sess.received(), 1)
}

func TestHub_PersistenceFailurePropagates(t *testing.T) {
	store := newFakeStore()
	hub := newHub("u1", store, nil)
	defer hub.Close()

	sess := &fakeSession{}
	hub.Register(sess)
	hub.sync(t)

	store.mu.Lock()
	store.failing = true
	store.mu.Unlock()

	err := hub.Update(context.Background(), snap("u1", StatusOnline))
	require.Error(t, err)

	var genericErr pkgError.GenericError
	require.ErrorAs(t, err, &genericErr)
	assert.Equal(t, "PERSISTENCE_ERROR", genericErr.ErrCode())

	// The failed write neither replaced the snapshot nor broadcast anything.
	got, getErr := hub.Get(context.Background())
	require.NoError(t, getErr)
	assert.Nil(t, got)
	assert.Len(t, sess.received(), 1)
}

func TestHub_IdempotentUpdate(t *testing.T) {
	store := newFakeStore()
	hub := newHub("u1", store, nil)
	defer hub.Close()

	ctx := context.Background()
	same := snap("u1", StatusOnline)
	require.NoError(t, hub.Update(ctx, same))

	before, err := hub.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, hub.Update(ctx, same))

	after, err := hub.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHub_ForwardSkipsStore(t *testing.T) {
	store := newFakeStore()
	hub := newHub("u1", store, nil)
	defer hub.Close()

	sess := &fakeSession{}
	hub.Register(sess)
	hub.sync(t)

	hub.Forward([]byte(`{"_id":"u1","status":"online"}`))
	hub.sync(t)

	assert.Len(t, sess.received(), 2)

	store.mu.Lock()
	saves := store.saves
	store.mu.Unlock()
	assert.Zero(t, saves)
}

func TestHub_BroadcastHookSeesSerializedPayload(t *testing.T) {
	var (
		mu      sync.Mutex
		subject string
		payload []byte
	)
	hook := func(id string, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		subject = id
		payload = data
	}

	hub := newHub("u1", newFakeStore(), hook)
	defer hub.Close()

	require.NoError(t, hub.Update(context.Background(), snap("u1", StatusOnline)))
	hub.sync(t)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "u1", subject)

	var got Snapshot
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, StatusOnline, got.Status)
}
