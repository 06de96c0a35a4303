package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/NeetCrusader/rich-presence/infrastructure/valkey"
	"github.com/NeetCrusader/rich-presence/presence"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"
)

var (
	vkClient *valkey.Client
	wsChan   = "rpresence:ws_broadcast"
	localID  string
)

// relayMessage carries one broadcast payload between server instances.
type relayMessage struct {
	SubjectID string          `json:"subject_id"`
	Payload   json.RawMessage `json:"payload"`
	SenderID  string          `json:"sender_id,omitempty"`
}

// SetValkeyClient initializes the distributed broadcast system: local
// broadcasts are published to every other instance, and payloads received
// from them are fanned out to local subscribers.
func SetValkeyClient(client *valkey.Client, serverID string, manager *presence.Manager) {
	vkClient = client
	localID = serverID

	manager.SetBroadcastHook(publishToValkey)
	startValkeySubscriber(manager)
}

func publishToValkey(subjectID string, payload []byte) {
	if vkClient == nil {
		return
	}

	data, err := json.Marshal(relayMessage{
		SubjectID: subjectID,
		Payload:   payload,
		SenderID:  localID,
	})
	if err != nil {
		return
	}

	ctx := context.Background()
	cmd := vkClient.Inner().B().Publish().Channel(wsChan).Message(string(data)).Build()
	if err := vkClient.Inner().Do(ctx, cmd).Error(); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

func startValkeySubscriber(manager *presence.Manager) {
	if vkClient == nil {
		return
	}

	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed broadcasts")
	go func() {
		err := vkClient.Inner().Receive(context.Background(), vkClient.Inner().B().Subscribe().Channel(wsChan).Build(), func(msg valkeylib.PubSubMessage) {
			var relay relayMessage
			if err := json.Unmarshal([]byte(msg.Message), &relay); err != nil {
				return
			}
			// Avoid loops: ignore messages sent by this same instance
			if relay.SenderID == localID {
				return
			}
			manager.ForwardLocal(relay.SubjectID, relay.Payload)
		})
		if err != nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}

// session adapts a fiber websocket connection to the hub's Session contract.
// Writes are serialized because pong replies come from the read goroutine
// while broadcasts come from the hub goroutine.
type session struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *session) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// RegisterRoutes mounts the per-subject subscribe endpoint. On open the
// client receives the current snapshot or the no-data marker, then every
// subsequent full snapshot until it disconnects.
func RegisterRoutes(app fiber.Router, manager *presence.Manager, roster presence.Resolver) {
	app.Use("/presence/:id/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/presence/:id/ws", websocket.New(func(conn *websocket.Conn) {
		subjectID := conn.Params("id")

		if roster != nil {
			if _, err := roster.Resolve(subjectID); err != nil {
				// Structured error payload, then close; the subscribe
				// request itself did not fail at the protocol level.
				payload, _ := json.Marshal(map[string]string{"error": err.Error()})
				_ = conn.WriteMessage(websocket.TextMessage, payload)
				_ = conn.Close()
				return
			}
		}

		hub := manager.Hub(subjectID)
		sess := &session{conn: conn}

		defer func() {
			hub.Unregister(sess)
			_ = conn.Close()
		}()

		hub.Register(sess)

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] Read error for %s: %v", subjectID, err)
				}
				return
			}

			if messageType == websocket.TextMessage && string(message) == "ping" {
				if err := sess.Send([]byte("pong")); err != nil {
					return
				}
			}
		}
	}))
}
