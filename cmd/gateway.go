package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/NeetCrusader/rich-presence/infrastructure/discord"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the Discord gateway bot standalone, forwarding updates to a remote relay",
	Run:   gatewayServer,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

func gatewayServer(_ *cobra.Command, _ []string) {
	initApp()

	if cfg.Discord.BotToken == "" {
		logrus.Fatalln("DISCORD_BOT_TOKEN is required for the gateway command")
	}
	if cfg.Webhook.RelayURL == "" || cfg.Webhook.Secret == "" {
		logrus.Fatalln("WEBHOOK_RELAY_URL and WEBHOOK_SECRET are required for the gateway command")
	}

	sink := discord.NewWebhookForwarder(cfg.Webhook.RelayURL, cfg.Webhook.Secret)

	gw, err := discord.NewGateway(cfg.Discord.BotToken, cfg.Discord.GuildID, sink)
	if err != nil {
		logrus.Fatalln("Failed to create discord gateway:", err)
	}
	if err := gw.Open(); err != nil {
		logrus.Fatalln("Failed to connect discord gateway:", err)
	}
	gateway = gw

	logrus.Infof("[GATEWAY] Forwarding presence updates to %s", cfg.Webhook.RelayURL)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logrus.Info("[GATEWAY] Termination signal received, shutting down...")
	StopApp()
}
