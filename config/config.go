// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up when none is given.
const DefaultFile = "cmsdesk.yaml"

// Config is the root configuration structure.
type Config struct {
	CMS      CMSConfig      `yaml:"cms"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Editor   EditorConfig   `yaml:"editor"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CMSConfig configures the remote CMS admin API.
type CMSConfig struct {
	URL     string            `yaml:"url"`
	Token   string            `yaml:"token,omitempty"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ServerConfig configures the local HTTP API started by `serve`.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the local sqlite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EditorConfig configures editing sessions.
type EditorConfig struct {
	HistoryLimit int `yaml:"history_limit"` // undo steps kept per session
	ExpandDepth  int `yaml:"expand_depth"`  // levels opened when a session starts
	PageSize     int `yaml:"page_size"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CMSDESK_CMS_URL        - CMS admin API base URL (required)
//	CMSDESK_CMS_TOKEN      - API token (default: token stored by `login`)
//	CMSDESK_CMS_TIMEOUT    - Request timeout (default: 10s)
//	CMSDESK_SERVER_HOST    - Local API host (default: 127.0.0.1)
//	CMSDESK_SERVER_PORT    - Local API port (default: 7070)
//	CMSDESK_DATABASE_PATH  - Local database (default: ~/.cmsdesk/cmsdesk.db)
//	CMSDESK_HISTORY_LIMIT  - Undo steps per session (default: 100)
//	CMSDESK_EXPAND_DEPTH   - Levels opened on start (default: 1)
//	CMSDESK_PAGE_SIZE      - List page size (default: 25)
//	CMSDESK_LOG_LEVEL      - Log level: debug, info, warn, error (default: warn)
//	CMSDESK_LOG_FORMAT     - Log format: json or console (default: console)
//	CMSDESK_METRICS_ENABLED - Enable /metrics endpoint (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide %s or set CMSDESK_CMS_URL", DefaultFile)
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("CMSDESK_CMS_URL") != ""
}

// Offline returns a configuration for working from a bundle file without a
// CMS. The remote section is left empty.
func Offline() *Config {
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// Addr returns the listen address of the local API.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies CMSDESK_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// CMS configuration
	if v := os.Getenv("CMSDESK_CMS_URL"); v != "" {
		cfg.CMS.URL = v
	}
	if v := os.Getenv("CMSDESK_CMS_TOKEN"); v != "" {
		cfg.CMS.Token = v
	}
	if v := os.Getenv("CMSDESK_CMS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CMS.Timeout = d
		}
	}

	// Server configuration
	if v := os.Getenv("CMSDESK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CMSDESK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Database configuration
	if v := os.Getenv("CMSDESK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Editor configuration
	if v := os.Getenv("CMSDESK_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Editor.HistoryLimit = n
		}
	}
	if v := os.Getenv("CMSDESK_EXPAND_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Editor.ExpandDepth = n
		}
	}
	if v := os.Getenv("CMSDESK_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Editor.PageSize = n
		}
	}

	// Logging configuration
	if v := os.Getenv("CMSDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CMSDESK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("CMSDESK_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CMSDESK_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// DefaultDatabasePath is ~/.cmsdesk/cmsdesk.db, or a relative path when the
// home directory is unknown.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "cmsdesk.db"
	}
	return filepath.Join(home, ".cmsdesk", "cmsdesk.db")
}

func setDefaults(cfg *Config) {
	if cfg.CMS.Timeout == 0 {
		cfg.CMS.Timeout = 10 * time.Second
	}
	cfg.CMS.URL = strings.TrimRight(cfg.CMS.URL, "/")

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 7070
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath()
	}

	if cfg.Editor.HistoryLimit == 0 {
		cfg.Editor.HistoryLimit = 100
	}
	if cfg.Editor.ExpandDepth == 0 {
		cfg.Editor.ExpandDepth = 1
	}
	if cfg.Editor.PageSize == 0 {
		cfg.Editor.PageSize = 25
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.CMS.URL == "" {
		return fmt.Errorf("cms.url is required")
	}
	u, err := url.Parse(cfg.CMS.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("cms.url must be an absolute http(s) URL, got %q", cfg.CMS.URL)
	}
	if cfg.CMS.Timeout < 0 {
		return fmt.Errorf("cms.timeout must not be negative")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Editor.HistoryLimit < 0 {
		return fmt.Errorf("editor.history_limit must not be negative")
	}
	if cfg.Editor.PageSize < 0 || cfg.Editor.PageSize > 100 {
		return fmt.Errorf("editor.page_size must be between 1 and 100, got %d", cfg.Editor.PageSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	return nil
}
