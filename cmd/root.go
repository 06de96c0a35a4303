package cmd

import (
	"time"

	"github.com/NeetCrusader/rich-presence/core/config"
	"github.com/NeetCrusader/rich-presence/core/database"
	"github.com/NeetCrusader/rich-presence/infrastructure/discord"
	"github.com/NeetCrusader/rich-presence/infrastructure/valkey"
	"github.com/NeetCrusader/rich-presence/pkg/utils"
	"github.com/NeetCrusader/rich-presence/presence"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg *config.Config

	// Shared subsystems, wired per command
	vkClient *valkey.Client
	manager  *presence.Manager
	gateway  *discord.Gateway
)

var rootCmd = &cobra.Command{
	Use:   "rich-presence",
	Short: "Relay a Discord user's live presence to browser clients",
	Long: `rich-presence keeps the latest presence snapshot per subject durable and
fans every update out to subscribed WebSocket clients.`,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()
}

func initFlags() {
	rootCmd.PersistentFlags().String("port", "", "HTTP port to listen on (overrides APP_PORT)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (overrides APP_DEBUG)")

	_ = viper.BindPFlag("app.port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initApp loads configuration and applies flag overrides.
func initApp() {
	loaded, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalln("Failed to load configuration:", err)
	}
	cfg = loaded

	if port := viper.GetString("app.port"); port != "" {
		cfg.App.Port = port
	}
	if viper.GetBool("app.debug") {
		cfg.App.Debug = true
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// StopApp shuts down all subsystems in dependency order.
func StopApp() {
	if gateway != nil {
		if err := gateway.Close(); err != nil {
			logrus.Errorf("Error closing discord gateway: %v", err)
		}
	}
	if manager != nil {
		manager.Close()
	}
	if vkClient != nil {
		vkClient.Close()
	}
	if sqlDB, err := database.GetLegacyDB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
