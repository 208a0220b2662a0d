package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string
	CocAPIToken   string
	CocAPIBaseURL string
	DatabaseURL   string // empty means run on the file store only
	DataDir       string
	LogLevel      string
	Environment   string
	CronSpecWar   string // cadence of the war polling cycle
}

// Load reads configuration from environment variables and .env file (if present).
// Missing credentials are a startup failure; the process must refuse to run
// without them.
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.CocAPIToken = os.Getenv("COC_API_TOKEN")
	if cfg.CocAPIToken == "" {
		return nil, fmt.Errorf("COC_API_TOKEN is not set")
	}

	cfg.CocAPIBaseURL = os.Getenv("COC_API_BASE_URL") // empty: client default

	// DATABASE_URL is deliberately optional: without it the bot runs in
	// file-only persistence mode.
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecWar = os.Getenv("CRON_SPEC_WAR_CHECK")
	if cfg.CronSpecWar == "" {
		cfg.CronSpecWar = "* * * * *" // Default: every minute
	}

	return cfg, nil
}
