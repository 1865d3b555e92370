package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfig overrides the configuration file location.
const EnvConfig = "OCO_CONFIG"

// ConfigPath returns the configuration file path: $OCO_CONFIG, or
// ~/.oco/config.json.
func ConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(DataDir(), "config.json")
}

// DataDir returns the oco data directory: ~/.oco.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".oco"
	}
	return filepath.Join(home, ".oco")
}

// Load reads and parses the config file at path, then applies environment
// overrides. If path is empty, ConfigPath() is used. A missing file yields
// DefaultConfig().
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnv(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// Parse decodes data over DefaultConfig. The format follows the file
// extension of name: .yaml and .yml are YAML, anything else JSON. Fields
// missing from data keep their defaults; a routes section replaces the
// default routes as a whole.
func Parse(data []byte, name string) (*Config, error) {
	decode := json.Unmarshal
	if isYAML(name) {
		decode = yaml.Unmarshal
	}

	var probe struct {
		Routes *RoutesConfig `json:"routes" yaml:"routes"`
	}
	if err := decode(data, &probe); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}

	cfg := DefaultConfig()
	cfg.Routes = RoutesConfig{}
	if err := decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	if probe.Routes == nil {
		cfg.Routes = DefaultRoutes()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return &cfg, nil
}

// Save writes cfg to path as indented JSON, or YAML for .yaml/.yml paths.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Dispatch.Concurrency < 1 {
		return fmt.Errorf("dispatch.concurrency must be at least 1, got %d", c.Dispatch.Concurrency)
	}
	if c.Dispatch.CallbackTimeout < 0 {
		return fmt.Errorf("dispatch.callbackTimeout must not be negative")
	}
	switch c.Storage.Driver {
	case "", "memory", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver %q is not one of memory, file, sqlite, sqlite3", c.Storage.Driver)
	}
	if _, err := BuildTable(c.Routes); err != nil {
		return err
	}
	return nil
}

// StoragePath returns storage.path, defaulting under DataDir by driver.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	switch c.Storage.Driver {
	case "file":
		return filepath.Join(DataDir(), "storage.json")
	case "sqlite", "sqlite3":
		return filepath.Join(DataDir(), "storage.db")
	}
	return ""
}

// SchedulePath returns schedule.path, defaulting to ~/.oco/schedule/jobs.json.
func (c *Config) SchedulePath() string {
	if c.Schedule.Path != "" {
		return expandHome(c.Schedule.Path)
	}
	return filepath.Join(DataDir(), "schedule", "jobs.json")
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Chat.Adapter, "OCO_CHAT_ADAPTER")
	set(&cfg.Chat.Slack.BotToken, "OCO_SLACK_BOT_TOKEN")
	set(&cfg.Chat.Slack.AppToken, "OCO_SLACK_APP_TOKEN")
	set(&cfg.Chat.Telegram.Token, "OCO_TELEGRAM_TOKEN")
	set(&cfg.Chat.Bridge.Token, "OCO_BRIDGE_TOKEN")
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
