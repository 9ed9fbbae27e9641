package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file looked up by the CLI.
const DefaultConfigFile = "ecagent.yaml"

// LoadConfig loads configuration from a YAML file at the specified path.
// Values in the file override the defaults; the result is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies ECAGENT_* environment overrides. An empty path, or a missing
// DefaultConfigFile, starts from the defaults.
//
// The loading sequence is:
// 1. Load YAML from file (or defaults)
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := loadOrDefault(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func loadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := LoadConfig(path)
	if err != nil && path == DefaultConfigFile && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format ECAGENT_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Rules overrides
	envString("ECAGENT_RULES_FILE", &cfg.Rules.File)
	envBool("ECAGENT_RULES_WATCH", &cfg.Rules.Watch)
	envDuration("ECAGENT_RULES_DEBOUNCE", &cfg.Rules.Debounce)

	// Engine overrides
	envFloat("ECAGENT_ENGINE_DEFAULT_QUANTITY", &cfg.Engine.DefaultQuantity)
	envBool("ECAGENT_ENGINE_USE_PRICE_HISTORY", &cfg.Engine.UsePriceHistory)

	// Citation overrides
	envString("ECAGENT_CITATIONS_RESOURCES_DIR", &cfg.Citations.ResourcesDir)
	envString("ECAGENT_CITATIONS_REQUIRED_PREFIX", &cfg.Citations.RequiredPrefix)
	envBool("ECAGENT_CITATIONS_ALLOW_ANY_SOURCE", &cfg.Citations.AllowAnySource)
	envInt("ECAGENT_CITATIONS_TOP_K", &cfg.Citations.TopK)

	// Pay item and pricing overrides
	envString("ECAGENT_PAY_ITEMS_CATALOG_PATH", &cfg.PayItems.CatalogPath)
	envString("ECAGENT_PRICING_DB_PATH", &cfg.Pricing.DBPath)

	// Evidence overrides
	envBool("ECAGENT_EVIDENCE_ENABLED", &cfg.Evidence.Enabled)
	envString("ECAGENT_EVIDENCE_BACKEND", &cfg.Evidence.Backend)
	envString("ECAGENT_EVIDENCE_SQLITE_PATH", &cfg.Evidence.SQLite.Path)
	envInt("ECAGENT_EVIDENCE_RETENTION_DAYS", &cfg.Evidence.Retention.Days)
	envString("ECAGENT_EVIDENCE_RETENTION_PRUNE_SCHEDULE", &cfg.Evidence.Retention.PruneSchedule)
	if val := os.Getenv("ECAGENT_EVIDENCE_RETENTION_MAX_RECORDS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Evidence.Retention.MaxRecords = i
		}
	}

	// Server overrides
	envString("ECAGENT_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)

	// Telemetry overrides
	envString("ECAGENT_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("ECAGENT_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("ECAGENT_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("ECAGENT_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("ECAGENT_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("ECAGENT_TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
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
