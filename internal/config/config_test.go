package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("TASKPLANNER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, name := range []string{
		"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "DATABASE_URL", "LOG_LEVEL",
		"POLL_INTERVAL_SECONDS", "REPORT_INTERVAL_HOURS", "REPORT_AT", "UPCOMING_MINUTES",
		"NOTIFY_LEAD_MINUTES", "NOTIFY_GRACE_MINUTES", "CLOCK_FORMAT",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.ReportInterval)
	assert.Equal(t, 120, cfg.Thresholds.UpcomingMinutes)
	assert.Equal(t, 60, cfg.Thresholds.NotifyLeadMinutes)
	assert.Equal(t, 5, cfg.Thresholds.NotifyGraceMinutes)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
	assert.Zero(t, cfg.TelegramChatID)
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_CHAT_ID", "4242")
	t.Setenv("POLL_INTERVAL_SECONDS", "15")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")
	t.Setenv("REPORT_AT", "08:30")
	t.Setenv("NOTIFY_LEAD_MINUTES", "45")
	t.Setenv("CLOCK_FORMAT", "3:04 PM")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(4242), cfg.TelegramChatID)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "08:30", cfg.ReportAt)
	assert.Equal(t, 45, cfg.Thresholds.NotifyLeadMinutes)
	assert.Equal(t, "3:04 PM", cfg.Thresholds.ClockLayout)
}

func TestLoadRejectsBadChatID(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_CHAT_ID", "me")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortUpcomingBand(t *testing.T) {
	for _, raw := range []string{"30", "-5"} {
		t.Run(raw, func(t *testing.T) {
			isolate(t)
			t.Setenv("UPCOMING_MINUTES", raw)
			_, err := Load()
			assert.ErrorContains(t, err, "UPCOMING_MINUTES must be at least 60")
		})
	}

	isolate(t)
	t.Setenv("UPCOMING_MINUTES", "60")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Thresholds.UpcomingMinutes)
}

func TestLoadReadsEnvFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "planner.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("TASKPLANNER_ENV_FILE", path)
	// godotenv does not override variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	_ = os.Unsetenv("LOG_LEVEL")
}
