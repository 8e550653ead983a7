package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DatabaseSchemePostgres = "postgres"
	DatabaseSchemeSQLite   = "sqlite"
	DatabaseSchemeMemory   = "memory"
)

type Config struct {
	Env                   string
	DatabaseURL           string
	DiscordToken          string
	DiscordGuildID        string
	Timezone              string
	StatesFile            string
	AllowCustomStates     bool
	PendingEditTimeoutSec int
	StoreMaxRetries       int
	EventWebhookURL       string
	Vocabulary            Vocabulary
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := c.DatabaseScheme(); err != nil {
		return err
	}
	if c.PendingEditTimeoutSec <= 0 {
		return fmt.Errorf("PENDING_EDIT_TIMEOUT_SEC must be positive, got %d", c.PendingEditTimeoutSec)
	}
	if c.StoreMaxRetries < 0 {
		return fmt.Errorf("STORE_MAX_RETRIES must not be negative, got %d", c.StoreMaxRetries)
	}
	if c.Timezone == "" {
		return fmt.Errorf("TRACKER_TIMEZONE is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TRACKER_TIMEZONE is invalid: %w", err)
	}
	if err := c.Vocabulary.Validate(); err != nil {
		return fmt.Errorf("state vocabulary is invalid: %w", err)
	}
	return nil
}

// ValidateBot checks the fields only the Discord process needs.
func (c *Config) ValidateBot() error {
	for _, req := range c.botFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) botFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "DISCORD_GUILD_ID", value: c.DiscordGuildID},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) PendingEditTimeout() time.Duration {
	return time.Duration(c.PendingEditTimeoutSec) * time.Second
}

// DatabaseScheme returns the storage backend selected by DATABASE_URL.
func (c *Config) DatabaseScheme() (string, error) {
	scheme, _, ok := strings.Cut(c.DatabaseURL, "://")
	if !ok {
		return "", fmt.Errorf("DATABASE_URL must look like <scheme>://..., got %q", c.DatabaseURL)
	}
	switch scheme {
	case "postgres", "postgresql":
		return DatabaseSchemePostgres, nil
	case DatabaseSchemeSQLite:
		return DatabaseSchemeSQLite, nil
	case DatabaseSchemeMemory:
		return DatabaseSchemeMemory, nil
	default:
		return "", fmt.Errorf("DATABASE_URL scheme %q is not supported", scheme)
	}
}

// SQLitePath strips the sqlite:// prefix.
func (c *Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseURL, DatabaseSchemeSQLite+"://")
}
