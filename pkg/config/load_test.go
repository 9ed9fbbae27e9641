package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecagent.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
rules:
  file: "./rules/district.yaml"
  debounce: "500ms"

engine:
  default_quantity: 2.5

citations:
  resources_dir: "./docs"
  top_k: 5

evidence:
  backend: "memory"
  retention:
    days: 30
    max_records: 1000

telemetry:
  logging:
    level: "debug"
    format: "json"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Rules.File != "./rules/district.yaml" {
		t.Errorf("rules.file = %q", cfg.Rules.File)
	}
	if cfg.Rules.Debounce != 500*time.Millisecond {
		t.Errorf("rules.debounce = %v", cfg.Rules.Debounce)
	}
	if cfg.Engine.DefaultQuantity != 2.5 {
		t.Errorf("engine.default_quantity = %v", cfg.Engine.DefaultQuantity)
	}
	if cfg.Citations.TopK != 5 || cfg.Citations.ResourcesDir != "./docs" {
		t.Errorf("citations = %+v", cfg.Citations)
	}
	if cfg.Evidence.Backend != "memory" || cfg.Evidence.Retention.Days != 30 || cfg.Evidence.Retention.MaxRecords != 1000 {
		t.Errorf("evidence = %+v", cfg.Evidence)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}

	// Omitted sections keep their defaults, including booleans.
	if !cfg.Evidence.Enabled || !cfg.Engine.UsePriceHistory || !cfg.Telemetry.Metrics.Enabled {
		t.Error("boolean defaults lost for omitted fields")
	}
	if cfg.Citations.RequiredPrefix != DefaultCitationsRequiredPrefix {
		t.Errorf("citations.required_prefix = %q", cfg.Citations.RequiredPrefix)
	}
	if cfg.Pricing.DBPath != DefaultPricingDBPath {
		t.Errorf("pricing.db_path = %q", cfg.Pricing.DBPath)
	}
}

func TestLoadConfig_ExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
evidence:
  enabled: false
engine:
  use_price_history: false
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Evidence.Enabled || cfg.Engine.UsePriceHistory {
		t.Error("explicit false values were overridden by defaults")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid yaml", "rules: [", "failed to parse"},
		{"invalid backend", "evidence:\n  backend: postgres\n", "evidence.backend"},
		{"invalid cron", "evidence:\n  retention:\n    prune_schedule: daily\n", "prune_schedule"},
		{"bad level", "telemetry:\n  logging:\n    level: loud\n", "telemetry.logging.level"},
		{"negative quantity", "engine:\n  default_quantity: -1\n", "engine.default_quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
rules:
  file: "./from-file.yaml"
telemetry:
  logging:
    level: "info"
`)

	t.Setenv("ECAGENT_RULES_FILE", "./from-env.yaml")
	t.Setenv("ECAGENT_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("ECAGENT_EVIDENCE_ENABLED", "false")
	t.Setenv("ECAGENT_CITATIONS_TOP_K", "7")
	t.Setenv("ECAGENT_EVIDENCE_RETENTION_MAX_RECORDS", "50")
	t.Setenv("ECAGENT_RULES_DEBOUNCE", "1s")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Rules.File != "./from-env.yaml" {
		t.Errorf("rules.file = %q, want env value", cfg.Rules.File)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("logging.level = %q, want warn", cfg.Telemetry.Logging.Level)
	}
	if cfg.Evidence.Enabled {
		t.Error("evidence.enabled should be false from env")
	}
	if cfg.Citations.TopK != 7 || cfg.Evidence.Retention.MaxRecords != 50 || cfg.Rules.Debounce != time.Second {
		t.Errorf("numeric overrides not applied: top_k=%d max_records=%d debounce=%v",
			cfg.Citations.TopK, cfg.Evidence.Retention.MaxRecords, cfg.Rules.Debounce)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("ECAGENT_EVIDENCE_BACKEND", "s3")

	_, err := LoadConfigWithEnvOverrides("")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if verr.Errors[0].Field != "evidence.backend" {
		t.Errorf("field = %q", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides_DefaultFileMissing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := LoadConfigWithEnvOverrides(DefaultConfigFile)
	if err != nil {
		t.Fatalf("missing default file should fall back to defaults, got %v", err)
	}
	if cfg.Evidence.Backend != DefaultEvidenceBackend {
		t.Errorf("backend = %q", cfg.Evidence.Backend)
	}

	if _, err := LoadConfigWithEnvOverrides(filepath.Join(dir, "custom.yaml")); err == nil {
		t.Error("explicit missing file should fail")
	}
}
