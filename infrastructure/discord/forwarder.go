package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/NeetCrusader/rich-presence/presence"
)

// IngestEnvelope is the webhook body the relay's ingest endpoint accepts.
type IngestEnvelope struct {
	UserID   string             `json:"userId"`
	Presence *presence.Snapshot `json:"presence"`
}

// WebhookForwarder posts normalized snapshots to a remote relay instance.
// Used when the gateway runs as a separate process from the relay.
type WebhookForwarder struct {
	client   *http.Client
	relayURL string
	secret   string
}

func NewWebhookForwarder(relayURL, secret string) *WebhookForwarder {
	return &WebhookForwarder{
		client:   &http.Client{Timeout: 15 * time.Second},
		relayURL: relayURL,
		secret:   secret,
	}
}

// Ingest implements Sink over HTTP. Duplicate delivery on retry is safe; the
// relay treats re-applying the same snapshot as a no-op.
func (f *WebhookForwarder) Ingest(ctx context.Context, snapshot *presence.Snapshot) error {
	body, err := json.Marshal(IngestEnvelope{
		UserID:   snapshot.SubjectID,
		Presence: snapshot,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.relayURL+"/webhook/presence", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.secret)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook rejected with status %d", resp.StatusCode)
	}
	return nil
}
