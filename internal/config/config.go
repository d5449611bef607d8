package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	TelegramToken string `env:"BOT_TOKEN"`

	// Admin usernames, comma-separated, with or without the leading @.
	Admins []string `env:"ADMINS"`

	MaxTeamNameLength int `env:"MAX_TEAM_NAME_LENGTH" envDefault:"50"`
	MinRating         int `env:"MIN_RATING" envDefault:"0"`
	MaxRating         int `env:"MAX_RATING" envDefault:"100"`

	PendingTTL    time.Duration `env:"PENDING_TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	SnapshotPath string        `env:"SNAPSHOT_PATH" envDefault:"tournament_data.json"`
	SaveInterval time.Duration `env:"SAVE_INTERVAL" envDefault:"30s"`

	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitCount  int           `env:"RATE_LIMIT_COUNT" envDefault:"3"`

	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"en"`

	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	ExportSecret string `env:"EXPORT_SECRET" envDefault:"change-me"`

	// Optional Google Sheets mirror of confirmed registrations. Enabled
	// only when both values are set.
	SpreadsheetID            string `env:"GOOGLE_SHEETS_SPREADSHEET_ID"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	admins map[string]bool
}

func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}

	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	if c.TelegramToken == "" {
		return c, fmt.Errorf("BOT_TOKEN is empty")
	}
	if c.MinRating > c.MaxRating {
		return c, fmt.Errorf("MIN_RATING %d greater than MAX_RATING %d", c.MinRating, c.MaxRating)
	}
	if c.MaxTeamNameLength < 2 {
		return c, fmt.Errorf("MAX_TEAM_NAME_LENGTH must be at least 2")
	}
	if c.RateLimitCount < 1 {
		return c, fmt.Errorf("RATE_LIMIT_COUNT must be positive")
	}
	if c.PendingTTL <= 0 {
		return c, fmt.Errorf("PENDING_TTL must be positive")
	}

	c.admins = map[string]bool{}
	for _, a := range c.Admins {
		a = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(a), "@"))
		if a != "" {
			c.admins[a] = true
		}
	}
	return c, nil
}

// IsAdmin reports whether a Telegram username belongs to an operator.
func (c Config) IsAdmin(username string) bool {
	if username == "" {
		return false
	}
	return c.admins[strings.ToLower(strings.TrimPrefix(username, "@"))]
}

// SheetsEnabled reports whether the confirmed-registration mirror should run.
func (c Config) SheetsEnabled() bool {
	return c.SpreadsheetID != "" && c.GoogleServiceAccountJSON != ""
}
