// Package config loads process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	DiscordToken string   `env:"DISCORD_TOKEN,required,notEmpty"`
	OwnerIDs     []string `env:"BOT_OWNER_IDS" envSeparator:","`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"levbot.db"`

	TwitchClientID     string        `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret string        `env:"TWITCH_CLIENT_SECRET"`
	TwitchPollInterval time.Duration `env:"TWITCH_POLL_INTERVAL" envDefault:"10s"`

	LogDirectory string `env:"LOG_DIRECTORY"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

// New reads the .env file when present, then parses the environment.
func New() (*Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// TwitchEnabled reports whether the streaming poller has credentials.
func (c *Config) TwitchEnabled() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != ""
}
