package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "test-telegram-token")
	t.Setenv("COC_API_TOKEN", "test-coc-token")
}

func clearOptionalEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"COC_API_BASE_URL", "DATABASE_URL", "DATA_DIR", "LOG_LEVEL", "ENVIRONMENT", "CRON_SPEC_WAR_CHECK"} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingTelegramToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("COC_API_TOKEN", "test-coc-token")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")
}

func TestLoad_MissingAPIToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "test-telegram-token")
	t.Setenv("COC_API_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COC_API_TOKEN")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	clearOptionalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-telegram-token", cfg.TelegramToken)
	assert.Equal(t, "test-coc-token", cfg.CocAPIToken)
	assert.Equal(t, "", cfg.DatabaseURL) // file-only mode
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "* * * * *", cfg.CronSpecWar)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/war_alarm")
	t.Setenv("DATA_DIR", "/var/lib/war_alarm")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("CRON_SPEC_WAR_CHECK", "*/5 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/war_alarm", cfg.DatabaseURL)
	assert.Equal(t, "/var/lib/war_alarm", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "*/5 * * * *", cfg.CronSpecWar)
}
