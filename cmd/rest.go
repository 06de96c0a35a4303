package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NeetCrusader/rich-presence/core/database"
	"github.com/NeetCrusader/rich-presence/infrastructure/discord"
	"github.com/NeetCrusader/rich-presence/infrastructure/valkey"
	"github.com/NeetCrusader/rich-presence/pkg/utils"
	"github.com/NeetCrusader/rich-presence/presence"
	"github.com/NeetCrusader/rich-presence/presence/repository"
	uiRest "github.com/NeetCrusader/rich-presence/ui/rest"
	"github.com/NeetCrusader/rich-presence/ui/rest/middleware"
	uiWebsocket "github.com/NeetCrusader/rich-presence/ui/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the presence relay API over HTTP and WebSocket",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	initApp()

	store := buildSnapshotStore()
	manager = presence.NewManager(store)

	serverID := utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)
	if vkClient != nil {
		uiWebsocket.SetValkeyClient(vkClient, serverID, manager)
	}

	// In-process gateway: ingest directly, no webhook hop.
	var roster presence.Resolver
	if cfg.Discord.BotToken != "" {
		gw, err := discord.NewGateway(cfg.Discord.BotToken, cfg.Discord.GuildID, manager)
		if err != nil {
			logrus.Fatalln("Failed to create discord gateway:", err)
		}
		if err := gw.Open(); err != nil {
			logrus.Fatalln("Failed to connect discord gateway:", err)
		}
		gateway = gw
		roster = gw
		logrus.Info("[REST] Discord gateway running in-process")
	} else if cfg.Webhook.Secret == "" {
		logrus.Fatalln("WEBHOOK_SECRET is required when no in-process gateway is configured")
	}

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "Rich Presence Relay",
		ServerHeader:            "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())

	origins := cfg.App.FrontendURL
	if len(cfg.App.CorsAllowedOrigins) > 0 {
		origins += ", " + strings.Join(cfg.App.CorsAllowedOrigins, ", ")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET, POST, OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowCredentials: true,
	}))

	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	group := app.Group(cfg.App.BasePath)
	uiRest.InitRestHealth(group)
	uiRest.InitRestPresence(group, manager, roster, cfg.Webhook.Secret)
	uiWebsocket.RegisterRoutes(group, manager, roster)

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Termination signal received, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start REST server:", err)
	}
}

// buildSnapshotStore picks the durable backend: Valkey when enabled, the SQL
// database otherwise.
func buildSnapshotStore() presence.SnapshotStore {
	if cfg.Database.ValkeyEnabled {
		client, err := valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Fatalln("Failed to connect to Valkey:", err)
		}
		vkClient = client
		logrus.Info("[REST] Using Valkey snapshot store")
		return repository.NewValkeySnapshotStore(client)
	}

	if cfg.Database.Driver == "sqlite" || cfg.Database.Driver == "" {
		_ = os.MkdirAll(cfg.Paths.Storages, 0755)
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalln("Failed to open database:", err)
	}
	store, err := repository.NewGormSnapshotStore(db)
	if err != nil {
		logrus.Fatalln("Failed to initialize snapshot store:", err)
	}
	logrus.Infof("[REST] Using %s snapshot store", cfg.Database.Driver)
	return store
}
