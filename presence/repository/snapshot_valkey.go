package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NeetCrusader/rich-presence/infrastructure/valkey"
	"github.com/NeetCrusader/rich-presence/presence"
)

// ValkeySnapshotStore implements presence.SnapshotStore using Valkey.
type ValkeySnapshotStore struct {
	client *valkey.Client
	prefix string
}

// NewValkeySnapshotStore creates a new ValkeySnapshotStore instance.
func NewValkeySnapshotStore(client *valkey.Client) *ValkeySnapshotStore {
	return &ValkeySnapshotStore{
		client: client,
		prefix: client.Key("snapshot") + ":",
	}
}

func (s *ValkeySnapshotStore) fullKey(subjectID string) string {
	return s.prefix + subjectID
}

func (s *ValkeySnapshotStore) Save(ctx context.Context, snapshot *presence.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	cmd := s.client.Inner().B().Set().
		Key(s.fullKey(snapshot.SubjectID)).
		Value(string(data)).
		Build()

	if err := s.client.Inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save snapshot to valkey: %w", err)
	}
	return nil
}

func (s *ValkeySnapshotStore) Get(ctx context.Context, subjectID string) (*presence.Snapshot, error) {
	cmd := s.client.Inner().B().Get().Key(s.fullKey(subjectID)).Build()
	data, err := s.client.Inner().Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot from valkey: %w", err)
	}

	var snapshot presence.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}
