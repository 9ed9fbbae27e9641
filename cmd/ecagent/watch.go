package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/config"
	"ecagent-hq/ecagent/pkg/evidence"
	"ecagent-hq/ecagent/pkg/evidence/retention"
	"ecagent-hq/ecagent/pkg/rules/ast"
	"ecagent-hq/ecagent/pkg/rules/store"
	"ecagent-hq/ecagent/pkg/telemetry/health"
	"ecagent-hq/ecagent/pkg/telemetry/metrics"
)

// maxServerConns caps concurrent connections to the watch mode HTTP server.
const maxServerConns = 64

var watchFlags struct {
	rules  string
	format string
	outDir string
	listen string
}

var watchCmd = &cobra.Command{
	Use:   "watch [PROJECT_FILE...]",
	Short: "Reload rules on change and serve metrics",
	Long: `Watch the rule file and reload it whenever it changes. A rule file that
fails to load is reported and the previous rule set stays active.

Projects named on the command line are processed at startup and again after
every successful reload; reports are written to --out-dir.

While running, watch mode:
  - Serves Prometheus metrics and health endpoints on server.listen_address
  - Prunes the evidence store on evidence.retention.prune_schedule

Examples:
  # Reload rules.yaml and serve metrics
  ecagent watch --rules rules.yaml

  # Regenerate two reports whenever the rules change
  ecagent watch --rules rules.yaml --out-dir reports/ sr37.yaml us31.yaml`,
	RunE: watchRules,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.rules, "rules", "r", "", "rule file (overrides rules.file)")
	watchCmd.Flags().StringVarP(&watchFlags.format, "format", "f", formatMarkdown, "report format: markdown, table, json, yaml")
	watchCmd.Flags().StringVar(&watchFlags.outDir, "out-dir", "reports", "directory for project reports")
	watchCmd.Flags().StringVarP(&watchFlags.listen, "listen", "l", "", "override listen address")
}

func watchRules(cmd *cobra.Command, args []string) error {
	if err := checkReportFormat(watchFlags.format); err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if watchFlags.rules != "" {
		cfg.Rules.File = watchFlags.rules
	}
	if watchFlags.listen != "" {
		cfg.Server.ListenAddress = watchFlags.listen
	}
	if cfg.Rules.File == "" {
		return cli.NewConfigError("rules.file", "watch requires a rule file (set rules.file or --rules)")
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	loader := newLoader(cfg)
	rs, err := loader.Load(cfg.Rules.File)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	registry := store.NewRegistry(rs)

	engineMetrics := metrics.NewEngineMetrics(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	opts := pipelineOptions{observer: engineMetrics}

	var evStore evidence.Storage
	if cfg.Evidence.Enabled {
		evStore, err = openEvidence(cfg, logger)
		if err != nil {
			return cli.NewCommandError("watch", err)
		}
		defer evStore.Close()
		opts.evidence = evStore

		pruner := retention.NewPruner(evStore, retentionConfig(cfg), logger)
		pruner.OnPrune(engineMetrics.RecordPrune)
		if err := pruner.Start(ctx); err != nil {
			return cli.NewConfigError("evidence.retention.prune_schedule", err.Error())
		}
		defer pruner.Stop()
		if next := pruner.NextPruning(); next != nil {
			logger.Debug("evidence retention scheduled", "next_pruning", next)
		}
	}

	p, err := newPipeline(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	regenerate := func() {
		current := registry.Current()
		version := provenance(logger, current.SourceFile)
		for _, path := range args {
			if err := writeReport(ctx, p, path, current, version); err != nil {
				logger.Error("project failed", "project_file", path, "error", err)
			}
		}
	}
	if err := ensureOutDir(args); err != nil {
		return cli.NewCommandError("watch", err)
	}
	regenerate()

	watcher, err := store.NewWatcher(&store.WatcherConfig{
		Path:             cfg.Rules.File,
		DebounceInterval: cfg.Rules.Debounce,
	}, loader, registry, logger)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	watcher.OnReload(func(hash string, err error) {
		engineMetrics.RecordReload(err)
		if err == nil {
			regenerate()
		}
	})

	srv := newWatchServer(cfg, engineMetrics, registry, evStore)
	ln, err := net.Listen("tcp", cfg.Server.ListenAddress)
	if err != nil {
		return cli.NewCommandError("watch", fmt.Errorf("failed to listen on %s: %w", cfg.Server.ListenAddress, err))
	}

	errChan := make(chan error, 2)
	go func() {
		if err := srv.Serve(netutil.LimitListener(ln, maxServerConns)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			errChan <- fmt.Errorf("watcher error: %w", err)
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Watching %s (%d rules, %s)\n", cfg.Rules.File, rs.Len(), shortHash(rs.Hash))
	fmt.Fprintf(out, "✓ Listening on %s\n", ln.Addr())
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	var runErr error
	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down gracefully...")
	case runErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := watcher.Stop(); err != nil {
		logger.Error("watcher shutdown failed", "error", err)
	}

	if runErr != nil {
		return cli.NewCommandError("watch", runErr)
	}
	fmt.Fprintln(out, "✓ Stopped")
	return nil
}

// newWatchServer mounts metrics and health endpoints as configured.
func newWatchServer(cfg *config.Config, m *metrics.EngineMetrics, registry *store.Registry, evStore evidence.Storage) *http.Server {
	mux := http.NewServeMux()

	if cfg.Telemetry.Metrics.Enabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, m.Handler())
	}

	if cfg.Telemetry.Health.Enabled {
		checker := health.New(cfg.Telemetry.Health.CheckTimeout)
		checker.RegisterCheck("rules", func(ctx context.Context) error {
			if registry.Current().Len() == 0 {
				return errors.New("no rules loaded")
			}
			return nil
		})
		if evStore != nil {
			checker.RegisterCheck("evidence", func(ctx context.Context) error {
				_, err := evStore.Count(ctx, &evidence.Query{})
				return err
			})
		}
		health.Register(mux, checker, &cfg.Telemetry.Health, Version, GitCommit, BuildDate)
	}

	return &http.Server{
		Addr:              cfg.Server.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}
}

func ensureOutDir(projects []string) error {
	if len(projects) == 0 {
		return nil
	}
	if err := os.MkdirAll(watchFlags.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// writeReport processes one project and writes its report to the output
// directory, named after the project file.
func writeReport(ctx context.Context, p *pipeline, path string, rules *ast.RuleSet, version *evidence.RuleSetVersion) error {
	res, err := p.run(ctx, path, rules, version)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(watchFlags.outDir, base+reportExtension(watchFlags.format))
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := p.render(f, watchFlags.format, res); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	p.logger.Info("report written", "project_file", path, "report", target)
	return nil
}

func reportExtension(format string) string {
	switch format {
	case formatJSON:
		return ".json"
	case formatYAML:
		return ".yaml"
	case formatTable:
		return ".txt"
	}
	return ".md"
}
