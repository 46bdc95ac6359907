// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for crashchat.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.crashchat/config.toml
//   - Built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete crashchat configuration.
type Config struct {
	// Server configuration (the chat backend)
	Server ServerConfig `toml:"server"`

	// Render configuration (markdown → HTML)
	Render RenderConfig `toml:"render"`

	// Log configuration
	Log LogConfig `toml:"log"`

	// Limits configuration
	Limits LimitsConfig `toml:"limits"`
}

// ServerConfig contains chat backend settings.
type ServerConfig struct {
	// BaseURL is the chat backend base URL
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the timeout for non-streaming requests in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// RenderConfig contains markdown rendering settings.
type RenderConfig struct {
	// HighlightCode enables chroma syntax highlighting for fenced code blocks
	HighlightCode bool `toml:"highlight_code"`
	// CodeStyle is the chroma style name used when highlighting
	CodeStyle string `toml:"code_style"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the zerolog level: "debug", "info", "warn", "error"
	Level string `toml:"level"`
}

// LimitsConfig contains client-side throttling settings.
type LimitsConfig struct {
	// RequestsPerMinute caps prompt submissions to the backend (0 = default)
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:     "http://127.0.0.1:8080",
			TimeoutSecs: 30,
		},
		Render: RenderConfig{
			HighlightCode: false,
			CodeStyle:     "monokai",
		},
		Log: LogConfig{
			Level: "info",
		},
		Limits: LimitsConfig{
			RequestsPerMinute: 20,
		},
	}
}

// SetDefaults fills in defaults for any zero values.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = def.Server.BaseURL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if c.Render.CodeStyle == "" {
		c.Render.CodeStyle = def.Render.CodeStyle
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Limits.RequestsPerMinute == 0 {
		c.Limits.RequestsPerMinute = def.Limits.RequestsPerMinute
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the crashchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".crashchat"), nil
}

// ConfigPath returns the TOML configuration file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the configuration directory if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file if present, falls back to defaults,
// applies environment overrides last, and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath reads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CRASHCHAT_SERVER_URL: overrides server.base_url
//   - CRASHCHAT_LOG_LEVEL: overrides log.level
//   - CRASHCHAT_HIGHLIGHT: set to "1" or "true" to enable code highlighting
func (c *Config) ApplyEnvOverrides() {
	if serverURL := os.Getenv("CRASHCHAT_SERVER_URL"); serverURL != "" {
		c.Server.BaseURL = serverURL
	}
	if level := os.Getenv("CRASHCHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if highlight := os.Getenv("CRASHCHAT_HIGHLIGHT"); highlight != "" {
		c.Render.HighlightCode = highlight == "1" || strings.ToLower(highlight) == "true"
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for inconsistent or dangerous values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("server.base_url must use http or https")
	}
	if u.Host == "" {
		return errors.New("server.base_url is missing a host")
	}

	if c.Server.TimeoutSecs < 0 {
		return errors.New("server.timeout_secs must not be negative")
	}
	if c.Limits.RequestsPerMinute < 0 {
		return errors.New("limits.requests_per_minute must not be negative")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}
