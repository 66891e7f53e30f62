package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultAddr            = ":8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	DefaultModelDir        = "~/.modelhub/models"
	DefaultMaxLoadedModels = 2
	DefaultJanitorInterval = 60 * time.Second
	DefaultMaxAttempts     = 3
	DefaultInitialBackoff  = time.Second
	DefaultMaxBackoff      = 30 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MODELHUB_"

// ApplyDefaults fills zero values. ModelTTLMinutes and MinAvailableMemoryGB
// keep zero since it is meaningful for both.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.ModelDir == "" {
		c.ModelDir = DefaultModelDir
	}
	if c.MaxLoadedModels == 0 {
		c.MaxLoadedModels = DefaultMaxLoadedModels
	}
	if c.JanitorIntervalSeconds == 0 {
		c.JanitorIntervalSeconds = int(DefaultJanitorInterval / time.Second)
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Download.MaxAttempts == 0 {
		c.Download.MaxAttempts = DefaultMaxAttempts
	}
	if c.Download.InitialBackoffMS == 0 {
		c.Download.InitialBackoffMS = int(DefaultInitialBackoff / time.Millisecond)
	}
	if c.Download.MaxBackoffMS == 0 {
		c.Download.MaxBackoffMS = int(DefaultMaxBackoff / time.Millisecond)
	}
}

// ApplyEnv overrides fields from MODELHUB_* variables. Unset variables leave
// the field alone; malformed numbers and booleans are errors.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Addr)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("MODEL_DIR", &c.ModelDir)
	str("DEFAULT_MODEL", &c.DefaultModel)
	str("USER_AGENT", &c.Download.UserAgent)

	for key, dst := range map[string]*int{
		"MAX_LOADED_MODELS":        &c.MaxLoadedModels,
		"MODEL_TTL_MINUTES":        &c.ModelTTLMinutes,
		"JANITOR_INTERVAL_SECONDS": &c.JanitorIntervalSeconds,
		"GENERATE_TIMEOUT_SECONDS": &c.GenerateTimeoutSeconds,
		"DOWNLOAD_MAX_ATTEMPTS":    &c.Download.MaxAttempts,
	} {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}
	for key, dst := range map[string]*bool{
		"AUTO_DOWNLOAD":  &c.AutoDownload,
		"WARMUP_ON_LOAD": &c.WarmupOnLoad,
		"CORS_ENABLED":   &c.CORS.Enabled,
	} {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MIN_AVAILABLE_MEMORY_GB"); ok && v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%sMIN_AVAILABLE_MEMORY_GB: %w", EnvPrefix, err)
		}
		c.MinAvailableMemoryGB = f
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_BODY_BYTES: %w", EnvPrefix, err)
		}
		c.MaxBodyBytes = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		c.CORS.Origins = splitCSV(v)
	}
	return nil
}

// Validate rejects values no component can honor.
func (c *Config) Validate() error {
	if c.MaxLoadedModels < 1 {
		return fmt.Errorf("max_loaded_models must be >= 1, got %d", c.MaxLoadedModels)
	}
	if c.MinAvailableMemoryGB < 0 {
		return fmt.Errorf("min_available_memory_gb must be >= 0, got %v", c.MinAvailableMemoryGB)
	}
	if c.JanitorIntervalSeconds < 0 {
		return fmt.Errorf("janitor_interval_seconds must be >= 0, got %d", c.JanitorIntervalSeconds)
	}
	if c.GenerateTimeoutSeconds < 0 {
		return fmt.Errorf("generate_timeout_seconds must be >= 0, got %d", c.GenerateTimeoutSeconds)
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("max_body_bytes must be >= 1, got %d", c.MaxBodyBytes)
	}
	if c.Download.MaxAttempts < 1 {
		return fmt.Errorf("download.max_attempts must be >= 1, got %d", c.Download.MaxAttempts)
	}
	if c.Download.InitialBackoffMS < 0 || c.Download.MaxBackoffMS < 0 {
		return fmt.Errorf("download backoff must be >= 0")
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// ModelTTL returns the idle-unload threshold; zero or negative disables it.
func (c Config) ModelTTL() time.Duration { return time.Duration(c.ModelTTLMinutes) * time.Minute }

// GenerateTimeout returns the HTTP generation bound; 0 disables it.
func (c Config) GenerateTimeout() time.Duration {
	return time.Duration(c.GenerateTimeoutSeconds) * time.Second
}

// JanitorInterval returns the idle check period.
func (c Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSeconds) * time.Second
}

// InitialBackoff returns the first download retry delay.
func (d DownloadConfig) InitialBackoff() time.Duration {
	return time.Duration(d.InitialBackoffMS) * time.Millisecond
}

// MaxBackoff returns the download retry delay cap.
func (d DownloadConfig) MaxBackoff() time.Duration {
	return time.Duration(d.MaxBackoffMS) * time.Millisecond
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
