// Package config loads agentroom settings from agentroom.yml, .env and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File names searched by Load, in order.
var FileNames = []string{"agentroom.yml", "agentroom.yaml"}

// Environment overrides.
const (
	EnvAddr          = "AGENTROOM_ADDR"
	EnvStorage       = "AGENTROOM_STORAGE"
	EnvStoragePath   = "AGENTROOM_STORAGE_PATH"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvTurnCap       = "AGENTROOM_TURN_CAP"
	EnvHistoryWindow = "AGENTROOM_HISTORY_WINDOW"
	EnvLogLevel      = "AGENTROOM_LOG_LEVEL"
)

// Defaults.
const (
	DefaultAddr          = ":8000"
	DefaultStorage       = "sqlite"
	DefaultTurnCap       = 6
	DefaultHistoryWindow = 10
	DefaultMode          = "FREESTYLE"
	DefaultLogLevel      = "info"
)

// Config holds every setting. Treat it as read-only after Load.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Panel   PanelConfig   `yaml:"panel,omitempty"`
	Roles   RolesConfig   `yaml:"roles,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// MCP mounts the streamable MCP endpoint at /mcp when true.
	MCP bool `yaml:"mcp,omitempty"`
}

// StorageConfig selects the history backend.
type StorageConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// PanelConfig bounds rounds.
type PanelConfig struct {
	TurnCap       int    `yaml:"turnCap,omitempty"`
	HistoryWindow int    `yaml:"historyWindow,omitempty"`
	DefaultMode   string `yaml:"defaultMode,omitempty"`
}

// RolesConfig replaces built-in role directives, keyed by role name.
type RolesConfig struct {
	Directives map[string]string `yaml:"directives,omitempty"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level,omitempty"`
	Development bool   `yaml:"development,omitempty"`
}

// Load reads the first of FileNames found in dir, then loads dir/.env into
// the environment without overriding variables already set, then applies
// environment overrides and defaults. Missing files are not an error.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		cfg, err := LoadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return finish(&Config{}, dir)
}

// LoadFile reads the config at path. Unlike Load, a missing file is
// returned as an error wrapping fs.ErrNotExist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return finish(&cfg, filepath.Dir(path))
}

func finish(cfg *Config, dir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("config: load %s: %w", path, err)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvStorage); v != "" {
		c.Storage.Backend = v
	}
	if v := getenv(EnvStoragePath); v != "" {
		c.Storage.Path = v
	}
	if v := getenv(EnvDatabaseURL); v != "" && c.Storage.Path == "" {
		c.Storage.Path = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}

	for key, dst := range map[string]*int{
		EnvTurnCap:       &c.Panel.TurnCap,
		EnvHistoryWindow: &c.Panel.HistoryWindow,
	} {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("config: %s must be a positive integer, got %q", key, v)
		}
		*dst = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorage
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Panel.TurnCap <= 0 {
		c.Panel.TurnCap = DefaultTurnCap
	}
	if c.Panel.HistoryWindow <= 0 {
		c.Panel.HistoryWindow = DefaultHistoryWindow
	}
	if c.Panel.DefaultMode == "" {
		c.Panel.DefaultMode = DefaultMode
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
