package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server    ServerConfig   `toml:"server"`
	Remote    RemoteConfig   `toml:"remote"`
	Local     LocalConfig    `toml:"local"`
	Reminders ReminderConfig `toml:"reminders"`
	AI        AIConfig       `toml:"ai"`
	OpenAI    OpenAIConfig   `toml:"openai"`
	Mail      MailConfig     `toml:"mail"`
	Log       LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Addr   string `toml:"addr"`
	APIKey string `toml:"api_key"`
	DBPath string `toml:"db_path"`
}

type RemoteConfig struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// CacheTTL returns the project cache lifetime.
func (r RemoteConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

type LocalConfig struct {
	DBPath string `toml:"db_path"`
}

type ReminderConfig struct {
	Enabled         bool   `toml:"enabled"`
	IntervalMinutes int    `toml:"interval_minutes"`
	WorkStart       string `toml:"work_start"`
	WorkEnd         string `toml:"work_end"`
	WorkDays        []int  `toml:"work_days"`
	Notify          bool   `toml:"notify"`
}

type AIConfig struct {
	Provider string `toml:"provider"` // "claude-cli" or "openai"
	Model    string `toml:"model"`
}

type OpenAIConfig struct {
	APIKey string `toml:"api_key"`
}

type MailConfig struct {
	Enabled bool        `toml:"enabled"`
	Graph   GraphConfig `toml:"graph"`
}

type GraphConfig struct {
	ClientID string `toml:"client_id"`
	TenantID string `toml:"tenant_id"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// SlogLevel maps the configured level name, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Remote: RemoteConfig{
			CacheTTLSeconds: 60,
		},
		Reminders: ReminderConfig{
			Enabled:         true,
			IntervalMinutes: 30,
			WorkStart:       "08:00",
			WorkEnd:         "18:00",
			WorkDays:        []int{1, 2, 3, 4, 5},
			Notify:          true,
		},
		AI: AIConfig{
			Provider: "claude-cli",
			Model:    "sonnet",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "stempel"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataPath returns a file path inside the config directory.
func DataPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// LocalDBPath is the fallback database used when the remote is unreachable
// or not configured.
func (c *Config) LocalDBPath() (string, error) {
	if c.Local.DBPath != "" {
		return c.Local.DBPath, nil
	}
	return DataPath("stempel.db")
}

// ServerDBPath is the database served by `stempel serve`.
func (c *Config) ServerDBPath() (string, error) {
	if c.Server.DBPath != "" {
		return c.Server.DBPath, nil
	}
	return DataPath("server.db")
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STEMPEL_API_KEY"); v != "" {
		cfg.Server.APIKey = v
		cfg.Remote.APIKey = v
	}
	if v := os.Getenv("STEMPEL_REMOTE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("STEMPEL_DB"); v != "" {
		cfg.Local.DBPath = v
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("MSGRAPH_CLIENT_ID"); v != "" {
		cfg.Mail.Graph.ClientID = v
	}
	if v := os.Getenv("MSGRAPH_TENANT_ID"); v != "" {
		cfg.Mail.Graph.TenantID = v
	}
	if v := os.Getenv("STEMPEL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// Set persists a single dotted key (e.g. "remote.base_url" or
// "mail.graph.client_id") to the config file using a read-modify-write
// approach to preserve other settings.
func Set(key, value string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	return SetFile(path, key, value)
}

// SetFile is Set against an explicit file path.
func SetFile(path, key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) < 2 || slices.Contains(parts, "") {
		return fmt.Errorf("key %q must have the form section.key", key)
	}

	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	table := cfg
	for _, name := range parts[:len(parts)-1] {
		next, ok := table[name].(map[string]any)
		if !ok {
			next = make(map[string]any)
			table[name] = next
		}
		table = next
	}
	table[parts[len(parts)-1]] = coerce(value)

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Round-trip through the typed config so bad values fail here, not on next load.
	probe := DefaultConfig()
	if err := toml.Unmarshal(out, &probe); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	return os.WriteFile(path, out, 0600)
}

func coerce(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}
