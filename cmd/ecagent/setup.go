package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/citation"
	"ecagent-hq/ecagent/pkg/citation/index"
	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/config"
	"ecagent-hq/ecagent/pkg/evidence"
	"ecagent-hq/ecagent/pkg/evidence/storage"
	"ecagent-hq/ecagent/pkg/payitems"
	"ecagent-hq/ecagent/pkg/pricing"
	"ecagent-hq/ecagent/pkg/rules/ast"
	"ecagent-hq/ecagent/pkg/rules/store"
	"ecagent-hq/ecagent/pkg/telemetry/logging"
)

// loadConfig reads the config file named by --config with environment
// overrides and installs it as the current configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging section and makes it
// the slog default. --verbose forces debug level.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    w,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

// setup loads config and logging for a command.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLoader(cfg *config.Config) *store.Loader {
	return store.NewLoader(&store.LoaderConfig{
		MaxFileSize: cfg.Rules.MaxFileSize,
		MaxDepth:    cfg.Rules.MaxDepth,
	})
}

// loadRules loads override when set, otherwise the configured rule file.
// With neither, the built-in rules are used.
func loadRules(cfg *config.Config, override string) (*ast.RuleSet, string, error) {
	path := cfg.Rules.File
	if override != "" {
		path = override
	}
	rs, err := newLoader(cfg).Load(path)
	if err != nil {
		return nil, path, err
	}
	return rs, path, nil
}

// openEvidence opens the configured evidence backend. SQLite parent
// directories are created as needed.
func openEvidence(cfg *config.Config, logger *slog.Logger) (evidence.Storage, error) {
	switch cfg.Evidence.Backend {
	case "sqlite":
		if err := ensureDir(cfg.Evidence.SQLite.Path); err != nil {
			return nil, err
		}
		s, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Evidence.SQLite.Path,
			MaxOpenConns: cfg.Evidence.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Evidence.SQLite.MaxIdleConns,
			WALMode:      cfg.Evidence.SQLite.WALMode,
			BusyTimeout:  cfg.Evidence.SQLite.BusyTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storage: %w", err)
		}
		return s, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, cli.NewConfigError("evidence.backend", fmt.Sprintf("unsupported backend %q", cfg.Evidence.Backend))
	}
}

// openPrices opens the bid history store for the engine. It returns nil
// when price history is disabled or no database has been imported yet.
func openPrices(cfg *config.Config, logger *slog.Logger) (*pricing.Store, error) {
	if !cfg.Engine.UsePriceHistory {
		return nil, nil
	}
	if _, err := os.Stat(cfg.Pricing.DBPath); errors.Is(err, os.ErrNotExist) {
		logger.Debug("no bid history database, unit costs come from rules only", "path", cfg.Pricing.DBPath)
		return nil, nil
	}
	return openPricingStore(cfg, logger)
}

func openPricingStore(cfg *config.Config, logger *slog.Logger) (*pricing.Store, error) {
	if err := ensureDir(cfg.Pricing.DBPath); err != nil {
		return nil, err
	}
	s, err := pricing.Open(pricing.StoreConfig{
		DBPath:        cfg.Pricing.DBPath,
		BusyTimeout:   cfg.Pricing.BusyTimeout,
		LookupTimeout: cfg.Pricing.LookupTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open bid history: %w", err)
	}
	return s, nil
}

// loadCatalog loads the pay item catalog, or returns nil when none is
// configured.
func loadCatalog(cfg *config.Config) (*payitems.Catalog, error) {
	if cfg.PayItems.CatalogPath == "" {
		return nil, nil
	}
	return payitems.Load(cfg.PayItems.CatalogPath)
}

func citationPolicy(cfg *config.Config) citation.Policy {
	return citation.Policy{
		RequiredPrefix: cfg.Citations.RequiredPrefix,
		AllowAnySource: cfg.Citations.AllowAnySource,
	}
}

// newBinder indexes the resources directory and returns a binder over it
// together with any resource problems. A directory that cannot be indexed
// leaves the binder with rule-declared citations only.
func newBinder(cfg *config.Config, logger *slog.Logger) (*citation.Binder, []string) {
	missing := index.ValidateResources(cfg.Citations.ResourcesDir)

	var retriever citation.Retriever
	idx, err := index.Build(cfg.Citations.ResourcesDir, logger)
	if err != nil {
		logger.Warn("citation index unavailable", "dir", cfg.Citations.ResourcesDir, "error", err)
	} else {
		retriever = idx
	}

	binder := citation.NewBinder(&citation.BinderConfig{
		Policy: citationPolicy(cfg),
		TopK:   cfg.Citations.TopK,
	}, retriever, logger)
	return binder, missing
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if err := ensureDir(path); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
