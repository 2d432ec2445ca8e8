package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"STEMPEL_API_KEY", "STEMPEL_REMOTE_URL", "STEMPEL_DB", "OPENAI_API_KEY", "MSGRAPH_CLIENT_ID", "MSGRAPH_TENANT_ID", "STEMPEL_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
	assert.Equal(t, time.Minute, cfg.Remote.CacheTTL())
}

func TestLoadFile_OverlaysDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[remote]
base_url = "https://stempel.example.com"

[reminders]
interval_minutes = 15
`), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://stempel.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 15, cfg.Reminders.IntervalMinutes)
	assert.Equal(t, "08:00", cfg.Reminders.WorkStart)
	assert.Equal(t, "claude-cli", cfg.AI.Provider)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STEMPEL_API_KEY", "secret")
	t.Setenv("STEMPEL_DB", "/tmp/x.db")
	t.Setenv("STEMPEL_LOG_LEVEL", "debug")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, "secret", cfg.Remote.APIKey)
	p, err := cfg.LocalDBPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", p)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestLoadFile_BadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[remote\n"), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestSetFile_PreservesOtherKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ai]\nprovider = \"openai\"\n"), 0600))

	require.NoError(t, SetFile(path, "remote.base_url", "http://localhost:8080"))
	require.NoError(t, SetFile(path, "reminders.interval_minutes", "45"))
	require.NoError(t, SetFile(path, "reminders.notify", "false"))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "http://localhost:8080", cfg.Remote.BaseURL)
	assert.Equal(t, 45, cfg.Reminders.IntervalMinutes)
	assert.False(t, cfg.Reminders.Notify)
}

func TestSetFile_NestedKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, SetFile(path, "mail.enabled", "true"))
	require.NoError(t, SetFile(path, "mail.graph.client_id", "abc-123"))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, "abc-123", cfg.Mail.Graph.ClientID)
}

func TestSetFile_RejectsBadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.Error(t, SetFile(path, "nodot", "x"))
	assert.Error(t, SetFile(path, "remote..base_url", "x"))
	assert.Error(t, SetFile(path, "reminders.interval_minutes", "soon"))
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LogConfig{}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "WARN"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LogConfig{Level: "error"}.SlogLevel())
}
