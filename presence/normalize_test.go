package presence

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMember() *discordgo.Member {
	return &discordgo.Member{
		Nick: "",
		User: &discordgo.User{
			ID:            "u1",
			Username:      "alice",
			Discriminator: "0",
			GlobalName:    "Alice",
		},
	}
}

func TestNormalize_OfflineShape(t *testing.T) {
	n := NewNormalizer()

	snapshot := n.Normalize(RawEvent{Member: testMember(), Presence: nil})

	assert.Equal(t, "u1", snapshot.SubjectID)
	assert.Equal(t, StatusOffline, snapshot.Status)
	assert.Equal(t, []Activity{}, snapshot.Activities)
	assert.Nil(t, snapshot.CustomStatus)
	assert.Equal(t, PlatformStatus{}, snapshot.Platform)
	assert.NotNil(t, snapshot.Badges)
}

func TestNormalize_CustomStatusExtraction(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := &Normalizer{Now: func() time.Time { return fixed }}

	pres := &discordgo.Presence{
		Status: discordgo.StatusOnline,
		Activities: []*discordgo.Activity{
			{Name: "Chess", Type: discordgo.ActivityTypeGame},
			{Name: "Custom Status", Type: discordgo.ActivityTypeCustom, State: "brb"},
			{Name: "Spotify", Type: discordgo.ActivityTypeListening},
		},
	}

	snapshot := n.Normalize(RawEvent{Member: testMember(), Presence: pres})

	require.NotNil(t, snapshot.CustomStatus)
	assert.Equal(t, "brb", snapshot.CustomStatus.Name)
	assert.Equal(t, fixed.UnixMilli(), snapshot.CustomStatus.CreatedTimestamp)

	// The pseudo-activity is projected out; ordinary entries keep their order.
	require.Len(t, snapshot.Activities, 2)
	assert.Equal(t, "Chess", snapshot.Activities[0].Name)
	assert.Equal(t, "Spotify", snapshot.Activities[1].Name)
}

func TestNormalize_NoCustomStatus(t *testing.T) {
	n := NewNormalizer()

	pres := &discordgo.Presence{
		Status: discordgo.StatusIdle,
		Activities: []*discordgo.Activity{
			{Name: "Chess", Type: discordgo.ActivityTypeGame},
		},
	}

	snapshot := n.Normalize(RawEvent{Member: testMember(), Presence: pres})

	assert.Nil(t, snapshot.CustomStatus)
	assert.Equal(t, StatusIdle, snapshot.Status)
	require.Len(t, snapshot.Activities, 1)
}

func TestNormalize_PlatformCopiedVerbatim(t *testing.T) {
	n := NewNormalizer()

	snapshot := n.Normalize(RawEvent{
		Member:   testMember(),
		Presence: &discordgo.Presence{Status: discordgo.StatusDoNotDisturb},
		Platform: PlatformStatus{Desktop: "dnd", Mobile: "idle"},
	})

	assert.Equal(t, StatusDoNotDisturb, snapshot.Status)
	assert.Equal(t, "dnd", snapshot.Platform.Desktop)
	assert.Equal(t, "idle", snapshot.Platform.Mobile)
	assert.Empty(t, snapshot.Platform.Web)
}

func TestFormatTag(t *testing.T) {
	assert.Equal(t, "alice", FormatTag("alice", "0"))
	assert.Equal(t, "bob#4521", FormatTag("bob", "4521"))
	assert.Equal(t, "carol", FormatTag("carol", ""))
}

func TestDisplayNamePrecedence(t *testing.T) {
	member := testMember()

	member.Nick = "Nickname"
	assert.Equal(t, "Nickname", displayName(member))

	member.Nick = ""
	assert.Equal(t, "Alice", displayName(member))

	member.User.GlobalName = ""
	assert.Equal(t, "alice", displayName(member))
}

func TestFormatTitle(t *testing.T) {
	cases := []struct {
		activityType discordgo.ActivityType
		want         string
	}{
		{discordgo.ActivityTypeGame, "Playing Chess"},
		{discordgo.ActivityTypeStreaming, "Streaming Chess"},
		{discordgo.ActivityTypeListening, "Listening to Chess"},
		{discordgo.ActivityTypeWatching, "Watching Chess"},
		{discordgo.ActivityTypeCompeting, "Competing in Chess"},
	}
	for _, tc := range cases {
		got := formatTitle(&discordgo.Activity{Name: "Chess", Type: tc.activityType})
		assert.Equal(t, tc.want, got)
	}
}

func TestFormatEmoji(t *testing.T) {
	assert.Equal(t, "🔥", formatEmoji(discordgo.Emoji{Name: "🔥"}))
	assert.Equal(t,
		"https://cdn.discordapp.com/emojis/123.png",
		formatEmoji(discordgo.Emoji{ID: "123", Name: "blob"}))
	assert.Equal(t,
		"https://cdn.discordapp.com/emojis/123.gif",
		formatEmoji(discordgo.Emoji{ID: "123", Name: "blob", Animated: true}))
}

func TestAssetURL(t *testing.T) {
	assert.Empty(t, assetURL("app1", ""))
	assert.Equal(t,
		"https://media.discordapp.net/external/abc",
		assetURL("app1", "mp:external/abc"))
	assert.Equal(t,
		"https://i.scdn.co/image/xyz",
		assetURL("", "spotify:xyz"))
	assert.Equal(t,
		"https://cdn.discordapp.com/app-assets/app1/asset9.png",
		assetURL("app1", "asset9"))
	assert.Empty(t, assetURL("", "asset9"))
}

func TestMapTimestamps(t *testing.T) {
	assert.Nil(t, mapTimestamps(discordgo.TimeStamps{}))

	ts := mapTimestamps(discordgo.TimeStamps{StartTimestamp: 100})
	require.NotNil(t, ts)
	require.NotNil(t, ts.Start)
	assert.EqualValues(t, 100, *ts.Start)
	assert.Nil(t, ts.End)
}

func TestFormatBadges(t *testing.T) {
	flags := discordgo.UserFlagDiscordPartner | discordgo.UserFlagHouseBravery
	badges := formatBadges(flags)
	assert.Equal(t, []string{"Partner", "HouseBravery"}, badges)

	assert.Equal(t, []string{}, formatBadges(0))
}
