package config

import (
	"fmt"
	"strings"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App      AppConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Discord  DiscordConfig
	Webhook  WebhookConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	BasePath           string
	TrustedProxies     []string
	FrontendURL        string
	CorsAllowedOrigins []string
	ServerID           string
}

type PathsConfig struct {
	Storages string
}

type DatabaseConfig struct {
	Driver   string // "sqlite" (default) or "postgres"
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB name for Postgres

	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type DiscordConfig struct {
	BotToken string
	GuildID  string
}

type WebhookConfig struct {
	// Secret authorizes POST /webhook/presence (bearer token).
	Secret string
	// RelayURL is where the standalone gateway command forwards updates.
	RelayURL string
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Version:            "v1.2.0",
			Port:               getEnv("APP_PORT", "3000"),
			Debug:              getEnvBool("APP_DEBUG", false),
			BasePath:           getEnv("APP_BASE_PATH", ""),
			TrustedProxies:     splitList(getEnv("APP_TRUSTED_PROXIES", "")),
			FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
			CorsAllowedOrigins: splitList(getEnv("APP_CORS_ALLOWED_ORIGINS", "")),
			ServerID:           getEnv("APP_SERVER_ID", ""),
		},
		Paths: PathsConfig{
			Storages: getEnv("APP_STORAGES_PATH", "storages"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "rpresence"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "storages/presence.db"),
			ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
			ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
			ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
			ValkeyDB:        getEnvInt("VALKEY_DB", 0),
			ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "rpresence"),
		},
		Discord: DiscordConfig{
			BotToken: getEnv("DISCORD_BOT_TOKEN", ""),
			GuildID:  getEnv("DISCORD_GUILD_ID", ""),
		},
		Webhook: WebhookConfig{
			Secret:   getEnv("WEBHOOK_SECRET", ""),
			RelayURL: getEnv("WEBHOOK_RELAY_URL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	Global = cfg
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
