// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// docsearch-tui.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.docsearch/config.toml
//   - ~/.docsearch/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete docsearch-tui configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend configuration
	Backend BackendConfig `toml:"backend" json:"backend"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Export configuration
	Export ExportConfig `toml:"export" json:"export"`
}

// BackendConfig contains the documentation search service configuration.
type BackendConfig struct {
	// URL is the base URL of the search service
	URL string `toml:"url" json:"url"`
	// ChatPath is the streaming answer endpoint path
	ChatPath string `toml:"chat_path" json:"chat_path"`
	// ResultLimit is the retrieval limit sent with each query
	ResultLimit int `toml:"result_limit" json:"result_limit"`
	// IdleTimeoutSecs aborts a stream after this many seconds without data.
	// Clamped to 5..300.
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs"`
	// RequestsPerMinute caps query submissions client-side (0 = no cap)
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// UIConfig contains display configuration.
type UIConfig struct {
	// WordWrap is the preferred render width for answers (0 = terminal width)
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// ShowReferences toggles the reference list under finalized answers
	ShowReferences bool `toml:"show_references" json:"show_references"`
	// PlainMode forces the liner REPL instead of the full-screen TUI
	PlainMode bool `toml:"plain_mode" json:"plain_mode"`
}

// ExportConfig contains transcript export configuration.
type ExportConfig struct {
	// Dir is where transcripts are written (default ~/.docsearch/exports)
	Dir string `toml:"dir" json:"dir"`
	// Format is "markdown" or "json"
	Format string `toml:"format" json:"format"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			URL:             "http://127.0.0.1:8000",
			ChatPath:        "/api/chat/stream",
			ResultLimit:     4,
			IdleTimeoutSecs: 30,
		},
		UI: UIConfig{
			WordWrap:       0,
			ShowReferences: true,
		},
		Export: ExportConfig{
			Format: "markdown",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the docsearch configuration directory (~/.docsearch).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docsearch"), nil
}

// ConfigPathTOML returns the TOML config file path.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the JSON config file path.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DebugLogPath returns the debug log file path, creating the configuration
// directory if needed.
func DebugLogPath() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// EnsureConfigDir creates the configuration directory if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from disk, preferring TOML over JSON, applies
// environment overrides, and validates. Missing files are not an error; the
// defaults are used.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := ConfigPathTOML(); err == nil {
		if err := LoadTOML(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, err
		} else if err == nil {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid configuration: %w", err)
			}
			return cfg, nil
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if err := LoadJSON(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over the given config.
func LoadTOML(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	_, err := toml.DecodeFile(path, cfg)
	return err
}

// LoadJSON decodes a JSON file over the given config.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

// LoadFromPath loads a config from an explicit path, picking the decoder by
// extension. Used by the --config flag and the reload watcher.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	if filepath.Ext(path) == ".json" {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as TOML to the default location.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// applyEnvOverrides lets DOCSEARCH_* variables take precedence over file
// values: useful in CI and for one-off runs against another backend.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSEARCH_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("DOCSEARCH_CHAT_PATH"); v != "" {
		c.Backend.ChatPath = v
	}
	if v := os.Getenv("DOCSEARCH_RESULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.ResultLimit = n
		}
	}
	if v := os.Getenv("DOCSEARCH_IDLE_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.IdleTimeoutSecs = n
		}
	}
	if v := os.Getenv("DOCSEARCH_PLAIN"); v != "" {
		c.UI.PlainMode = v == "1" || v == "true"
	}
	if v := os.Getenv("DOCSEARCH_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrInvalidURL is returned when the backend URL cannot be parsed.
var ErrInvalidURL = errors.New("backend url is not a valid http(s) URL")

// Validate normalizes out-of-range values by clamping rather than rejecting,
// and reports unfixable problems.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		c.Backend.URL = Default().Backend.URL
	}
	if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	if c.Backend.ChatPath == "" {
		c.Backend.ChatPath = Default().Backend.ChatPath
	}
	if c.Backend.ResultLimit < 1 {
		c.Backend.ResultLimit = 1
	}
	if c.Backend.ResultLimit > 20 {
		c.Backend.ResultLimit = 20
	}
	if c.Backend.IdleTimeoutSecs < 5 {
		c.Backend.IdleTimeoutSecs = 5
	}
	if c.Backend.IdleTimeoutSecs > 300 {
		c.Backend.IdleTimeoutSecs = 300
	}
	if c.Backend.RequestsPerMinute < 0 {
		c.Backend.RequestsPerMinute = 0
	}
	if c.UI.WordWrap < 0 {
		c.UI.WordWrap = 0
	}
	if c.Export.Format != "markdown" && c.Export.Format != "json" {
		c.Export.Format = "markdown"
	}
	return nil
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Global returns the process-wide configuration instance, or nil if none has
// been set.
func Global() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

// SetGlobal replaces the process-wide configuration instance. Called at
// startup and by the reload watcher.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}
