package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded over the defaults, then validated.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention JOBHOOK_SECTION_FIELD (e.g., JOBHOOK_POLICY_PAGE_LIMIT).
// Environment variables always take precedence over file-based configuration.
// An empty path starts from the defaults.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefault()
	} else {
		var err error
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format JOBHOOK_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Policy overrides
	envInt("JOBHOOK_POLICY_PAGE_LIMIT", &cfg.Policy.PageLimit)
	envString("JOBHOOK_POLICY_HIGH_VOLUME_PRINTER", &cfg.Policy.HighVolumePrinter)
	envBool("JOBHOOK_POLICY_ALLOW_HOLD_AT_TARGET", &cfg.Policy.AllowHoldAtTarget)
	envString("JOBHOOK_POLICY_FAIL_SAFE_MODE", &cfg.Policy.FailSafeMode)
	envBool("JOBHOOK_POLICY_TRACE", &cfg.Policy.Trace)
	envBool("JOBHOOK_POLICY_WATCH", &cfg.Policy.Watch)
	envDuration("JOBHOOK_POLICY_WATCH_DEBOUNCE", &cfg.Policy.WatchDebounce)

	// Costs overrides
	envString("JOBHOOK_COSTS_LOCALE", &cfg.Costs.Locale)
	envString("JOBHOOK_COSTS_CURRENCY", &cfg.Costs.Currency)

	// Evidence overrides
	envBool("JOBHOOK_EVIDENCE_ENABLED", &cfg.Evidence.Enabled)
	envString("JOBHOOK_EVIDENCE_BACKEND", &cfg.Evidence.Backend)
	envString("JOBHOOK_EVIDENCE_SQLITE_PATH", &cfg.Evidence.SQLite.Path)
	envInt("JOBHOOK_EVIDENCE_RETENTION_DAYS", &cfg.Evidence.Retention.Days)
	envString("JOBHOOK_EVIDENCE_RETENTION_PRUNE_SCHEDULE", &cfg.Evidence.Retention.PruneSchedule)
	envString("JOBHOOK_EVIDENCE_RETENTION_ARCHIVE_PATH", &cfg.Evidence.Retention.ArchivePath)

	// Telemetry overrides
	envString("JOBHOOK_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("JOBHOOK_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("JOBHOOK_TELEMETRY_LOGGING_REDACT_PII", &cfg.Telemetry.Logging.RedactPII)
	envBool("JOBHOOK_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("JOBHOOK_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envString("JOBHOOK_TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	envBool("JOBHOOK_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("JOBHOOK_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("JOBHOOK_TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
