package config

import (
	"fmt"
	"sync/atomic"
)

// current is the configuration of the running process.
var current atomic.Pointer[Config]

// Load reads path with environment overrides and installs the result as the
// current configuration. On error the current configuration is unchanged.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	current.Store(cfg)
	return cfg, nil
}

// Current returns the installed configuration, or Default when none has been
// loaded.
func Current() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	return Default()
}

// Set installs cfg as the current configuration. A nil cfg restores the
// defaults.
func Set(cfg *Config) {
	current.Store(cfg)
}
