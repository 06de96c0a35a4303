package presence

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// customStatusName is the internal activity name Discord assigns to the
// custom-status pseudo-activity.
const customStatusName = "Custom Status"

// RawEvent is one raw gateway observation for a subject. A nil Presence means
// the subject is offline or not visible. Platform carries the per-client
// status map, which the gateway adapter decodes from the wire payload.
type RawEvent struct {
	Member   *discordgo.Member
	Presence *discordgo.Presence
	Platform PlatformStatus
}

// Normalizer converts raw gateway events into canonical snapshots. It is a
// pure transform; Now is injectable for tests and defaults to time.Now.
type Normalizer struct {
	Now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize builds the canonical snapshot for one raw member + presence pair.
func (n *Normalizer) Normalize(ev RawEvent) *Snapshot {
	user := ev.Member.User

	snapshot := &Snapshot{
		SubjectID:   user.ID,
		DisplayName: displayName(ev.Member),
		Tag:         FormatTag(user.Username, user.Discriminator),
		AvatarURL:   user.AvatarURL(""),
		Status:      StatusOffline,
		Activities:  []Activity{},
		Badges:      formatBadges(user.PublicFlags),
	}

	if ev.Presence == nil {
		return snapshot
	}

	snapshot.Status = normalizeStatus(ev.Presence.Status)
	snapshot.Platform = ev.Platform

	for _, raw := range ev.Presence.Activities {
		if raw == nil {
			continue
		}
		if snapshot.CustomStatus == nil && raw.Type == discordgo.ActivityTypeCustom {
			snapshot.CustomStatus = n.customStatus(raw)
		}
		if raw.Name == customStatusName {
			continue
		}
		snapshot.Activities = append(snapshot.Activities, mapActivity(raw))
	}

	return snapshot
}

func (n *Normalizer) customStatus(raw *discordgo.Activity) *CustomStatus {
	created := raw.CreatedAt
	if created.IsZero() {
		now := n.Now
		if now == nil {
			now = time.Now
		}
		created = now()
	}
	return &CustomStatus{
		Name:             raw.State,
		CreatedTimestamp: created.UnixMilli(),
		Emoji:            formatEmoji(raw.Emoji),
	}
}

func mapActivity(raw *discordgo.Activity) Activity {
	return Activity{
		ApplicationID: raw.ApplicationID,
		Name:          raw.Name,
		Type:          activityTypeName(raw.Type),
		Details:       raw.Details,
		State:         raw.State,
		Title:         formatTitle(raw),
		Emoji:         formatEmoji(raw.Emoji),
		Assets: ActivityAssets{
			LargeImage: assetURL(raw.ApplicationID, raw.Assets.LargeImageID),
			LargeText:  raw.Assets.LargeText,
			SmallImage: assetURL(raw.ApplicationID, raw.Assets.SmallImageID),
			SmallText:  raw.Assets.SmallText,
		},
		Timestamps: mapTimestamps(raw.Timestamps),
	}
}

func mapTimestamps(ts discordgo.TimeStamps) *ActivityTimestamps {
	if ts.StartTimestamp == 0 && ts.EndTimestamp == 0 {
		return nil
	}
	out := &ActivityTimestamps{}
	if ts.StartTimestamp != 0 {
		start := ts.StartTimestamp
		out.Start = &start
	}
	if ts.EndTimestamp != 0 {
		end := ts.EndTimestamp
		out.End = &end
	}
	return out
}

// FormatTag canonicalizes a username + discriminator pair. Accounts migrated
// to unique usernames carry the zero discriminator and lose the suffix.
func FormatTag(username, discriminator string) string {
	if discriminator == "" || discriminator == "0" {
		return username
	}
	return username + "#" + discriminator
}

func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

func normalizeStatus(status discordgo.Status) Status {
	switch status {
	case discordgo.StatusOnline:
		return StatusOnline
	case discordgo.StatusIdle:
		return StatusIdle
	case discordgo.StatusDoNotDisturb:
		return StatusDoNotDisturb
	default:
		return StatusOffline
	}
}

func activityTypeName(t discordgo.ActivityType) string {
	switch t {
	case discordgo.ActivityTypeGame:
		return "Playing"
	case discordgo.ActivityTypeStreaming:
		return "Streaming"
	case discordgo.ActivityTypeListening:
		return "Listening"
	case discordgo.ActivityTypeWatching:
		return "Watching"
	case discordgo.ActivityTypeCustom:
		return "Custom"
	case discordgo.ActivityTypeCompeting:
		return "Competing"
	default:
		return "Playing"
	}
}

func formatTitle(raw *discordgo.Activity) string {
	switch raw.Type {
	case discordgo.ActivityTypeGame:
		return "Playing " + raw.Name
	case discordgo.ActivityTypeStreaming:
		return "Streaming " + raw.Name
	case discordgo.ActivityTypeListening:
		return "Listening to " + raw.Name
	case discordgo.ActivityTypeWatching:
		return "Watching " + raw.Name
	case discordgo.ActivityTypeCompeting:
		return "Competing in " + raw.Name
	default:
		return raw.Name
	}
}

// formatEmoji resolves an emoji to a unicode literal or an absolute CDN URL
// for custom emojis.
func formatEmoji(emoji discordgo.Emoji) string {
	if emoji.ID == "" {
		return emoji.Name
	}
	ext := "png"
	if emoji.Animated {
		ext = "gif"
	}
	return fmt.Sprintf("https://cdn.discordapp.com/emojis/%s.%s", emoji.ID, ext)
}

// assetURL resolves a rich-presence asset identifier to an absolute URL.
// Discord proxies external assets behind the mp: prefix; Spotify ships its
// own id scheme; everything else is an application asset.
func assetURL(applicationID, assetID string) string {
	switch {
	case assetID == "":
		return ""
	case strings.HasPrefix(assetID, "mp:"):
		return "https://media.discordapp.net/" + strings.TrimPrefix(assetID, "mp:")
	case strings.HasPrefix(assetID, "spotify:"):
		return "https://i.scdn.co/image/" + strings.TrimPrefix(assetID, "spotify:")
	case applicationID != "":
		return fmt.Sprintf("https://cdn.discordapp.com/app-assets/%s/%s.png", applicationID, assetID)
	default:
		return ""
	}
}

func formatBadges(flags discordgo.UserFlags) []string {
	badgeNames := []struct {
		flag discordgo.UserFlags
		name string
	}{
		{discordgo.UserFlagDiscordEmployee, "Staff"},
		{discordgo.UserFlagDiscordPartner, "Partner"},
		{discordgo.UserFlagHypeSquadEvents, "HypesquadEvents"},
		{discordgo.UserFlagBugHunterLevel1, "BugHunterLevel1"},
		{discordgo.UserFlagHouseBravery, "HouseBravery"},
		{discordgo.UserFlagHouseBrilliance, "HouseBrilliance"},
		{discordgo.UserFlagHouseBalance, "HouseBalance"},
		{discordgo.UserFlagEarlySupporter, "EarlySupporter"},
		{discordgo.UserFlagBugHunterLevel2, "BugHunterLevel2"},
		{discordgo.UserFlagVerifiedBotDeveloper, "VerifiedDeveloper"},
		{discordgo.UserFlagDiscordCertifiedModerator, "CertifiedModerator"},
	}

	badges := make([]string, 0, len(badgeNames))
	for _, b := range badgeNames {
		if flags&b.flag != 0 {
			badges = append(badges, b.name)
		}
	}
	return badges
}
