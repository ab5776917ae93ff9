// Package config loads runtime settings for the AIO bot from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aio-labs/aio-bot/internal/util"
)

// Default configuration values.
const (
	DefaultTimezone            = "Asia/Almaty"
	DefaultDataDir             = "."
	DefaultProfilesFile        = "users_data.json"
	DefaultRemindersFile       = "tasks_data.json"
	DefaultFilesDir            = "user_files"
	DefaultPollInterval        = 60 * time.Second
	DefaultChatHistoryPairs    = 12
	DefaultCompletionInFlight  = 1
	DefaultCompletionAttempts  = 3
	DefaultShutdownTimeout     = 15 * time.Second
	DefaultCompletionModel     = "gpt-4o-mini"
	DefaultCompletionMaxTokens = 300
)

// Config contains all runtime settings for the bot process.
type Config struct {
	BotToken  string
	OpenAIKey string

	DataDir       string
	ProfilesFile  string
	RemindersFile string
	FilesDir      string

	TimezoneName string
	Location     *time.Location

	PollInterval       time.Duration
	ChatHistoryPairs   int
	CompletionInFlight int
	CompletionAttempts int
	CompletionModel    string

	AdminAddr       string
	MetricsNS       string
	Debug           bool
	ShutdownTimeout time.Duration
}

// Load reads environment variables and applies safe defaults. It fails when
// either required credential (BOT_TOKEN, OPENAI_API_KEY) is absent, or when
// the configured timezone cannot be resolved.
func Load() (Config, error) {
	cfg := Config{
		BotToken:           strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		OpenAIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		DataDir:            util.EnvOrDefault("AIO_DATA_DIR", DefaultDataDir),
		ProfilesFile:       util.EnvOrDefault("AIO_PROFILES_FILE", DefaultProfilesFile),
		RemindersFile:      util.EnvOrDefault("AIO_REMINDERS_FILE", DefaultRemindersFile),
		FilesDir:           util.EnvOrDefault("AIO_FILES_DIR", DefaultFilesDir),
		TimezoneName:       util.EnvOrDefault("AIO_TIMEZONE", DefaultTimezone),
		PollInterval:       DefaultPollInterval,
		ChatHistoryPairs:   DefaultChatHistoryPairs,
		CompletionInFlight: DefaultCompletionInFlight,
		CompletionAttempts: DefaultCompletionAttempts,
		CompletionModel:    util.EnvOrDefault("AIO_COMPLETION_MODEL", DefaultCompletionModel),
		AdminAddr:          util.EnvOrDefault("AIO_ADMIN_ADDR", ""),
		MetricsNS:          util.EnvOrDefault("AIO_METRICS_NAMESPACE", "aio"),
		Debug:              util.ParseBoolEnv("AIO_DEBUG", false),
		ShutdownTimeout:    DefaultShutdownTimeout,
	}

	if cfg.BotToken == "" || cfg.OpenAIKey == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN and OPENAI_API_KEY must both be set")
	}

	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return Config{}, fmt.Errorf("resolve timezone %q: %w", cfg.TimezoneName, err)
	}
	cfg.Location = loc

	cfg.PollInterval, err = durationFromEnv("AIO_POLL_INTERVAL", cfg.PollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("AIO_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatHistoryPairs, err = intFromEnv("AIO_CHAT_HISTORY_PAIRS", cfg.ChatHistoryPairs)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionInFlight, err = intFromEnv("AIO_COMPLETION_IN_FLIGHT", cfg.CompletionInFlight)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionAttempts, err = intFromEnv("AIO_COMPLETION_ATTEMPTS", cfg.CompletionAttempts)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func intFromEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
