package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("BOT_TOKEN", "token")
	_, err = Load()
	require.Error(t, err, "OPENAI_API_KEY alone missing must still fail")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("OPENAI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultTimezone, cfg.TimezoneName)
	require.NotNil(t, cfg.Location)
	require.Equal(t, DefaultPollInterval, cfg.PollInterval)
	require.Equal(t, DefaultChatHistoryPairs, cfg.ChatHistoryPairs)
	require.Equal(t, DefaultCompletionInFlight, cfg.CompletionInFlight)
	require.Equal(t, DefaultProfilesFile, cfg.ProfilesFile)
	require.Equal(t, DefaultRemindersFile, cfg.RemindersFile)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("OPENAI_API_KEY", "key")
	t.Setenv("AIO_POLL_INTERVAL", "5s")
	t.Setenv("AIO_CHAT_HISTORY_PAIRS", "4")
	t.Setenv("AIO_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.PollInterval)
	require.Equal(t, 4, cfg.ChatHistoryPairs)
	require.Equal(t, time.UTC, cfg.Location)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("OPENAI_API_KEY", "key")

	t.Setenv("AIO_POLL_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	t.Setenv("AIO_POLL_INTERVAL", "")

	t.Setenv("AIO_TIMEZONE", "No/Such_Zone")
	_, err = Load()
	require.Error(t, err)
}
