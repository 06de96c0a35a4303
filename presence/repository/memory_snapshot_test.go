package repository

import (
	"context"
	"testing"

	"github.com/NeetCrusader/rich-presence/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotStore_RoundTrip(t *testing.T) {
	store := NewMemorySnapshotStore()

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(context.Background(), &presence.Snapshot{
		SubjectID: "u1",
		Status:    presence.StatusOnline,
	}))

	got, err = store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, presence.StatusOnline, got.Status)
}

func TestMemorySnapshotStore_OverwriteKeepsLatest(t *testing.T) {
	store := NewMemorySnapshotStore()

	require.NoError(t, store.Save(context.Background(), &presence.Snapshot{SubjectID: "u1", Status: presence.StatusOnline}))
	require.NoError(t, store.Save(context.Background(), &presence.Snapshot{SubjectID: "u1", Status: presence.StatusIdle}))

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, presence.StatusIdle, got.Status)
}

func TestMemorySnapshotStore_SubjectsAreIsolated(t *testing.T) {
	store := NewMemorySnapshotStore()

	require.NoError(t, store.Save(context.Background(), &presence.Snapshot{SubjectID: "u1", Status: presence.StatusOnline}))

	got, err := store.Get(context.Background(), "u2")
	require.NoError(t, err)
	assert.Nil(t, got)
}
