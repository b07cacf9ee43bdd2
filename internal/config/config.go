package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taskplanner/internal/reminder"
)

// Config keeps runtime settings for the planner.
type Config struct {
	TelegramToken  string
	TelegramChatID int64
	DatabaseURL    string
	LogLevel       string
	PollInterval   time.Duration
	ReportInterval time.Duration
	ReportAt       string
	Thresholds     reminder.Thresholds
	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAIModel    string
}

const (
	DefaultDatabaseURL  = "taskplanner.db"
	DefaultLogLevel     = "info"
	DefaultPollInterval = time.Minute
	DefaultOpenAIModel  = "gpt-4o-mini"
)

// Load reads configuration from environment variables with sane defaults. A
// .env file in the working directory (or the one named by TASKPLANNER_ENV_FILE)
// fills variables that are not already set.
func Load() (Config, error) {
	envFile := coalesce(os.Getenv("TASKPLANNER_ENV_FILE"), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	th := reminder.DefaultThresholds()
	th.UpcomingMinutes = envInt("UPCOMING_MINUTES", th.UpcomingMinutes)
	th.NotifyLeadMinutes = envInt("NOTIFY_LEAD_MINUTES", th.NotifyLeadMinutes)
	th.NotifyGraceMinutes = envInt("NOTIFY_GRACE_MINUTES", th.NotifyGraceMinutes)
	th.ClockLayout = coalesce(strings.TrimSpace(os.Getenv("CLOCK_FORMAT")), th.ClockLayout)

	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:    coalesce(strings.TrimSpace(os.Getenv("DATABASE_URL")), DefaultDatabaseURL),
		LogLevel:       coalesce(strings.TrimSpace(os.Getenv("LOG_LEVEL")), DefaultLogLevel),
		PollInterval:   parseSeconds(strings.TrimSpace(os.Getenv("POLL_INTERVAL_SECONDS"))),
		ReportInterval: parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		ReportAt:       strings.TrimSpace(os.Getenv("REPORT_AT")),
		Thresholds:     th,
		OpenAIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:  strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OpenAIModel:    coalesce(strings.TrimSpace(os.Getenv("OPENAI_MODEL")), DefaultOpenAIModel),
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be numeric: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.Thresholds.NotifyGraceMinutes < 0 || cfg.Thresholds.NotifyLeadMinutes < 0 {
		return cfg, fmt.Errorf("notification window must not be negative")
	}
	if cfg.Thresholds.UpcomingMinutes < cfg.Thresholds.SoonMinutes {
		return cfg, fmt.Errorf("UPCOMING_MINUTES must be at least %d", cfg.Thresholds.SoonMinutes)
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func envInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s != "" {
			return s
		}
	}
	return ""
}
