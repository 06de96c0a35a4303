package rest

import (
	"crypto/subtle"
	"strings"

	"github.com/NeetCrusader/rich-presence/presence"
	pkgError "github.com/NeetCrusader/rich-presence/pkg/error"
	"github.com/NeetCrusader/rich-presence/pkg/utils"
	"github.com/NeetCrusader/rich-presence/validations"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Presence exposes the read and ingest endpoints of the relay.
type Presence struct {
	Manager *presence.Manager
	Roster  presence.Resolver // optional, only set when the gateway runs in-process
	Secret  string
}

func InitRestPresence(app fiber.Router, manager *presence.Manager, roster presence.Resolver, secret string) Presence {
	rest := Presence{Manager: manager, Roster: roster, Secret: secret}
	app.Get("/presence/:id", rest.Get)
	app.Post("/webhook/presence", rest.Ingest)
	return rest
}

// Get returns the current snapshot for a subject. When the store has no data
// and the gateway runs in-process, the live roster is consulted instead.
// Absence is reported as a structured payload, never a protocol failure.
func (handler *Presence) Get(c *fiber.Ctx) error {
	subjectID := c.Params("id")

	snapshot, err := handler.Manager.Get(c.UserContext(), subjectID)
	utils.PanicIfNeeded(err)

	if snapshot != nil {
		return c.JSON(snapshot)
	}

	if handler.Roster != nil {
		live, err := handler.Roster.Resolve(subjectID)
		if err != nil {
			return c.JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(live)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(presence.NoDataPayload)
}

// Ingest applies a webhook-delivered snapshot to the subject's store.
// Duplicate delivery is safe; re-applying the same snapshot only re-broadcasts.
func (handler *Presence) Ingest(c *fiber.Ctx) error {
	handler.authorize(c)

	var request struct {
		UserID   string             `json:"userId"`
		Presence *presence.Snapshot `json:"presence"`
	}
	if err := c.BodyParser(&request); err != nil {
		utils.PanicIfNeeded(pkgError.ValidationError("invalid request body: " + err.Error()))
	}

	err := validations.ValidateIngestPresence(c.UserContext(), request.UserID, request.Presence)
	utils.PanicIfNeeded(err)

	// The route key is authoritative for which store the update lands in.
	request.Presence.SubjectID = request.UserID

	err = handler.Manager.Ingest(c.UserContext(), request.Presence)
	utils.PanicIfNeeded(err)

	logrus.Debugf("[REST] Ingested presence update for %s", request.UserID)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Presence updated",
	})
}

// authorize rejects ingest requests lacking the bearer secret before any
// store is touched.
func (handler *Presence) authorize(c *fiber.Ctx) {
	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if handler.Secret == "" || !ok ||
		subtle.ConstantTimeCompare([]byte(token), []byte(handler.Secret)) != 1 {
		utils.PanicIfNeeded(pkgError.UnauthorizedError("invalid webhook credential"))
	}
}
