package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantFields []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:       "zero top k",
			mutate:     func(c *Config) { c.Citations.TopK = 0 },
			wantFields: []string{"citations.top_k"},
		},
		{
			name: "empty prefix allowed with any source",
			mutate: func(c *Config) {
				c.Citations.RequiredPrefix = ""
				c.Citations.AllowAnySource = true
			},
		},
		{
			name:       "empty prefix without any source",
			mutate:     func(c *Config) { c.Citations.RequiredPrefix = "" },
			wantFields: []string{"citations.required_prefix"},
		},
		{
			name: "archive without path",
			mutate: func(c *Config) {
				c.Evidence.Retention.ArchiveBeforeDelete = true
				c.Evidence.Retention.ArchivePath = ""
			},
			wantFields: []string{"evidence.retention.archive_path"},
		},
		{
			name:       "tracing without endpoint",
			mutate:     func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			wantFields: []string{"telemetry.tracing.endpoint"},
		},
		{
			name: "multiple errors are collected",
			mutate: func(c *Config) {
				c.Rules.MaxDepth = 0
				c.Server.ListenAddress = "localhost"
				c.Telemetry.Tracing.SampleRatio = 2
				c.Telemetry.Health.ReadinessPath = "ready"
			},
			wantFields: []string{
				"rules.max_depth",
				"server.listen_address",
				"telemetry.tracing.sample_ratio",
				"telemetry.health.readiness_path",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if len(verr.Errors) != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %v", len(verr.Errors), len(tt.wantFields), err)
			}
			for i, field := range tt.wantFields {
				if verr.Errors[i].Field != field {
					t.Errorf("error[%d].Field = %q, want %q", i, verr.Errors[i].Field, field)
				}
			}
			if len(tt.wantFields) > 1 && !strings.Contains(err.Error(), "errors:") {
				t.Errorf("multi-error message = %q", err.Error())
			}
		})
	}
}
