package presence

import "context"

// Status is the top-level availability of a subject.
type Status string

const (
	StatusOnline       Status = "online"
	StatusIdle         Status = "idle"
	StatusDoNotDisturb Status = "dnd"
	StatusOffline      Status = "offline"
)

// PlatformStatus maps each Discord client channel to its own status.
type PlatformStatus struct {
	Desktop string `json:"desktop,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
	Web     string `json:"web,omitempty"`
}

// CustomStatus is the free-text status line projected out of the
// custom-status pseudo-activity.
type CustomStatus struct {
	Name             string `json:"name"`
	CreatedTimestamp int64  `json:"createdTimestamp"`
	Emoji            string `json:"emoji,omitempty"`
}

// ActivityAssets holds the resolved image URLs and captions of an activity.
type ActivityAssets struct {
	LargeImage string `json:"largeImage,omitempty"`
	LargeText  string `json:"largeText,omitempty"`
	SmallImage string `json:"smallImage,omitempty"`
	SmallText  string `json:"smallText,omitempty"`
}

// ActivityTimestamps carries epoch-millisecond bounds; either side may be nil.
type ActivityTimestamps struct {
	Start *int64 `json:"start"`
	End   *int64 `json:"end"`
}

// Activity is one entry of a subject's activity list. The custom-status
// pseudo-activity never appears here.
type Activity struct {
	ApplicationID string              `json:"applicationId,omitempty"`
	Name          string              `json:"name"`
	Type          string              `json:"type"`
	Details       string              `json:"details,omitempty"`
	State         string              `json:"state,omitempty"`
	Title         string              `json:"title,omitempty"`
	Emoji         string              `json:"emoji,omitempty"`
	Assets        ActivityAssets      `json:"assets"`
	Timestamps    *ActivityTimestamps `json:"timestamps"`
}

// Snapshot is the complete current presence state for one subject. A newer
// snapshot always fully replaces the older one; there is no partial merge.
// Field tags keep the legacy wire shape (_id, _dn, pfp).
type Snapshot struct {
	SubjectID    string         `json:"_id"`
	DisplayName  string         `json:"_dn,omitempty"`
	Tag          string         `json:"tag,omitempty"`
	AvatarURL    string         `json:"pfp,omitempty"`
	Status       Status         `json:"status"`
	Platform     PlatformStatus `json:"platform"`
	CustomStatus *CustomStatus  `json:"customStatus"`
	Activities   []Activity     `json:"activities"`
	Badges       []string       `json:"badges"`
}

// Resolver produces a live snapshot for a subject from the upstream roster.
// It returns a NotFound error when the subject has no live member there.
type Resolver interface {
	Resolve(subjectID string) (*Snapshot, error)
}

// SnapshotStore persists the latest snapshot per subject. Get returns
// (nil, nil) when no snapshot was ever stored; absence is a normal state,
// not an error.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	Get(ctx context.Context, subjectID string) (*Snapshot, error)
}
