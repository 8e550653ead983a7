package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/utyara3/TimeTracker/internal/config"
)

type envConfig struct {
	Env                   string `env:"ENV" envDefault:"production"`
	DatabaseURL           string `env:"DATABASE_URL,required"`
	DiscordToken          string `env:"DISCORD_TOKEN"`
	DiscordGuildID        string `env:"DISCORD_GUILD_ID"`
	Timezone              string `env:"TRACKER_TIMEZONE" envDefault:"Europe/Moscow"`
	StatesFile            string `env:"STATES_FILE"`
	AllowCustomStates     bool   `env:"ALLOW_CUSTOM_STATES" envDefault:"true"`
	PendingEditTimeoutSec int    `env:"PENDING_EDIT_TIMEOUT_SEC" envDefault:"300"`
	StoreMaxRetries       int    `env:"STORE_MAX_RETRIES" envDefault:"3"`
	EventWebhookURL       string `env:"EVENT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	vocabulary := internalconfig.DefaultVocabulary()
	if raw.StatesFile != "" {
		loaded, err := LoadVocabulary(raw.StatesFile)
		if err != nil {
			return nil, err
		}
		vocabulary = loaded
	}

	cfg := &internalconfig.Config{
		Env:                   raw.Env,
		DatabaseURL:           raw.DatabaseURL,
		DiscordToken:          raw.DiscordToken,
		DiscordGuildID:        raw.DiscordGuildID,
		Timezone:              raw.Timezone,
		StatesFile:            raw.StatesFile,
		AllowCustomStates:     raw.AllowCustomStates,
		PendingEditTimeoutSec: raw.PendingEditTimeoutSec,
		StoreMaxRetries:       raw.StoreMaxRetries,
		EventWebhookURL:       raw.EventWebhookURL,
		Vocabulary:            vocabulary,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
