package rest

import (
	"github.com/NeetCrusader/rich-presence/core/config"
	"github.com/NeetCrusader/rich-presence/core/database"
	"github.com/gofiber/fiber/v2"
)

type Health struct{}

func InitRestHealth(app fiber.Router) Health {
	rest := Health{}
	app.Get("/", rest.Root)
	app.Get("/health", rest.Check)
	return rest
}

// Root keeps the legacy liveness shape the frontend expects.
func (handler *Health) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"🐱":       "meow",
	})
}

func (handler *Health) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if sqlDB, err := database.GetLegacyDB(); err != nil {
		dbStatus = err.Error()
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = err.Error()
	}

	version := ""
	if config.Global != nil {
		version = config.Global.App.Version
	}

	return c.JSON(fiber.Map{
		"status":   "up",
		"version":  version,
		"database": dbStatus,
	})
}
