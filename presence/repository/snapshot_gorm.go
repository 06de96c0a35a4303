package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NeetCrusader/rich-presence/presence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRecord is the durable row holding the latest snapshot per subject.
// The payload is the serialized snapshot; latest write fully overwrites, no
// schema versioning.
type SnapshotRecord struct {
	SubjectID string    `gorm:"primaryKey;column:subject_id"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SnapshotRecord) TableName() string {
	return "presence_snapshots"
}

// GormSnapshotStore implements presence.SnapshotStore on SQLite or Postgres.
type GormSnapshotStore struct {
	db *gorm.DB
}

// NewGormSnapshotStore migrates the snapshot table and returns the store.
func NewGormSnapshotStore(db *gorm.DB) (*GormSnapshotStore, error) {
	if err := db.AutoMigrate(&SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate presence_snapshots: %w", err)
	}
	return &GormSnapshotStore{db: db}, nil
}

func (s *GormSnapshotStore) Save(ctx context.Context, snapshot *presence.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	record := SnapshotRecord{
		SubjectID: snapshot.SubjectID,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", snapshot.SubjectID, err)
	}
	return nil
}

func (s *GormSnapshotStore) Get(ctx context.Context, subjectID string) (*presence.Snapshot, error) {
	var record SnapshotRecord
	err := s.db.WithContext(ctx).First(&record, "subject_id = ?", subjectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", subjectID, err)
	}

	var snapshot presence.Snapshot
	if err := json.Unmarshal([]byte(record.Payload), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot for %s: %w", subjectID, err)
	}
	return &snapshot, nil
}
