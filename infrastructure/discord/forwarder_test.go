package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NeetCrusader/rich-presence/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookForwarder_PostsEnvelope(t *testing.T) {
	var got IngestEnvelope
	var gotPath, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	forwarder := NewWebhookForwarder(server.URL, "s3cret")
	err := forwarder.Ingest(context.Background(), &presence.Snapshot{
		SubjectID: "u1",
		Status:    presence.StatusOnline,
	})
	require.NoError(t, err)

	assert.Equal(t, "/webhook/presence", gotPath)
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.Presence)
	assert.Equal(t, presence.StatusOnline, got.Presence.Status)
}

func TestWebhookForwarder_RejectedDelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	forwarder := NewWebhookForwarder(server.URL, "wrong")
	err := forwarder.Ingest(context.Background(), &presence.Snapshot{SubjectID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWebhookForwarder_UnreachableRelay(t *testing.T) {
	forwarder := NewWebhookForwarder("http://127.0.0.1:1", "s3cret")
	err := forwarder.Ingest(context.Background(), &presence.Snapshot{SubjectID: "u1"})
	assert.Error(t, err)
}
