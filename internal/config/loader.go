// Package config loads modelhub settings from YAML, JSON or TOML files and
// MODELHUB_* environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DownloadConfig tunes the weight file downloader.
type DownloadConfig struct {
	MaxAttempts      int    `json:"max_attempts" yaml:"max_attempts" toml:"max_attempts"`
	InitialBackoffMS int    `json:"initial_backoff_ms" yaml:"initial_backoff_ms" toml:"initial_backoff_ms"`
	MaxBackoffMS     int    `json:"max_backoff_ms" yaml:"max_backoff_ms" toml:"max_backoff_ms"`
	UserAgent        string `json:"user_agent" yaml:"user_agent" toml:"user_agent"`
}

// CORSConfig controls cross-origin access to the HTTP API.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	ModelDir             string  `json:"model_dir" yaml:"model_dir" toml:"model_dir"`
	DefaultModel         string  `json:"default_model" yaml:"default_model" toml:"default_model"`
	AutoDownload         bool    `json:"auto_download" yaml:"auto_download" toml:"auto_download"`
	MaxLoadedModels      int     `json:"max_loaded_models" yaml:"max_loaded_models" toml:"max_loaded_models"`
	ModelTTLMinutes      int     `json:"model_ttl_minutes" yaml:"model_ttl_minutes" toml:"model_ttl_minutes"`
	MinAvailableMemoryGB float64 `json:"min_available_memory_gb" yaml:"min_available_memory_gb" toml:"min_available_memory_gb"`
	WarmupOnLoad         bool    `json:"warmup_on_load" yaml:"warmup_on_load" toml:"warmup_on_load"`
	// JanitorIntervalSeconds is how often idle models are checked; 0 selects the default.
	JanitorIntervalSeconds int `json:"janitor_interval_seconds" yaml:"janitor_interval_seconds" toml:"janitor_interval_seconds"`
	// GenerateTimeoutSeconds bounds HTTP generation requests; 0 disables it.
	GenerateTimeoutSeconds int `json:"generate_timeout_seconds" yaml:"generate_timeout_seconds" toml:"generate_timeout_seconds"`
	// MaxBodyBytes caps JSON request bodies; 0 selects the default.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	ModelPaths   map[string]string         `json:"model_paths" yaml:"model_paths" toml:"model_paths"`
	ModelConfigs map[string]map[string]any `json:"model_configs" yaml:"model_configs" toml:"model_configs"`
	// ModelChecksums pins the expected SHA-256 of built-in catalog downloads.
	ModelChecksums map[string]string `json:"model_checksums" yaml:"model_checksums" toml:"model_checksums"`

	Download DownloadConfig `json:"download" yaml:"download" toml:"download"`
	CORS     CORSConfig     `json:"cors" yaml:"cors" toml:"cors"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
