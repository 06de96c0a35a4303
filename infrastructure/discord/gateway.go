package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NeetCrusader/rich-presence/presence"
	pkgError "github.com/NeetCrusader/rich-presence/pkg/error"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const ingestTimeout = 10 * time.Second

// Sink receives normalized snapshots from the gateway. The relay manager
// implements it for in-process mode; WebhookForwarder implements it for the
// standalone bot mode.
type Sink interface {
	Ingest(ctx context.Context, snapshot *presence.Snapshot) error
}

// Gateway maintains the Discord gateway session for one guild and feeds
// normalized presence snapshots into a sink.
type Gateway struct {
	session    *discordgo.Session
	guildID    string
	sink       Sink
	normalizer *presence.Normalizer
}

// NewGateway builds the gateway client. Open must be called to connect.
func NewGateway(botToken, guildID string, sink Sink) (*Gateway, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences

	g := &Gateway{
		session:    session,
		guildID:    guildID,
		sink:       sink,
		normalizer: presence.NewNormalizer(),
	}

	session.AddHandler(g.onReady)
	session.AddHandler(g.onEvent)

	return g, nil
}

// Open connects to the Discord gateway.
func (g *Gateway) Open() error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	return nil
}

// Close disconnects from the Discord gateway.
func (g *Gateway) Close() error {
	return g.session.Close()
}

// Resolve normalizes the cached roster state for a subject on demand. Used by
// the read and subscribe paths when the store has no data yet.
func (g *Gateway) Resolve(subjectID string) (*presence.Snapshot, error) {
	member, err := g.session.State.Member(g.guildID, subjectID)
	if err != nil || member == nil || member.User == nil {
		return nil, pkgError.NotFoundError("User not found in guild")
	}

	// A missing presence is the offline shape, not an error.
	pres, err := g.session.State.Presence(g.guildID, subjectID)
	if err != nil {
		pres = nil
	}

	return g.normalizer.Normalize(presence.RawEvent{
		Member:   member,
		Presence: pres,
	}), nil
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	logrus.Infof("[GATEWAY] Logged in as %s", presence.FormatTag(r.User.Username, r.User.Discriminator))
}

// presenceUpdatePayload decodes the raw gateway event. client_status is read
// from the wire directly because the typed presence struct does not expose
// the per-client map.
type presenceUpdatePayload struct {
	discordgo.Presence
	GuildID      string `json:"guild_id"`
	ClientStatus struct {
		Desktop string `json:"desktop"`
		Mobile  string `json:"mobile"`
		Web     string `json:"web"`
	} `json:"client_status"`
}

// onEvent handles the raw event stream; only PRESENCE_UPDATE for the
// configured guild is of interest.
func (g *Gateway) onEvent(s *discordgo.Session, e *discordgo.Event) {
	if e.Type != "PRESENCE_UPDATE" {
		return
	}

	var payload presenceUpdatePayload
	if err := json.Unmarshal(e.RawData, &payload); err != nil {
		logrus.Errorf("[GATEWAY] Failed to decode presence update: %v", err)
		return
	}
	if payload.GuildID != g.guildID || payload.User == nil {
		return
	}

	member, err := s.State.Member(g.guildID, payload.User.ID)
	if err != nil || member == nil || member.User == nil {
		logrus.Debugf("[GATEWAY] Member %s not in roster cache, skipping", payload.User.ID)
		return
	}

	snapshot := g.normalizer.Normalize(presence.RawEvent{
		Member:   member,
		Presence: &payload.Presence,
		Platform: presence.PlatformStatus{
			Desktop: payload.ClientStatus.Desktop,
			Mobile:  payload.ClientStatus.Mobile,
			Web:     payload.ClientStatus.Web,
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if err := g.sink.Ingest(ctx, snapshot); err != nil {
		logrus.Errorf("[GATEWAY] Failed to ingest presence for %s: %v", snapshot.SubjectID, err)
		return
	}
	logrus.Debugf("[GATEWAY] Updated presence for %s", snapshot.DisplayName)
}
