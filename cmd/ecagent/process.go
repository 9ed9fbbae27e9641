package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/evidence"
	"ecagent-hq/ecagent/pkg/rules/ast"
	"ecagent-hq/ecagent/pkg/rules/store"
	"ecagent-hq/ecagent/pkg/telemetry/metrics"
)

var processFlags struct {
	rules      string
	format     string
	output     string
	noEvidence bool
	metricsOut string
}

var processCmd = &cobra.Command{
	Use:   "process PROJECT_FILE...",
	Short: "Generate erosion control recommendations for projects",
	Long: `Evaluate the rule set against one or more project files and write the
recommendations.

Each project is validated, evaluated, bound to citations from the resources
directory and checked against the pay item catalog. Unless --no-evidence is
set, every run is written to the evidence store.

Output formats:
  markdown  Full report with summary, practices, pay items and traceability
  table     Console tables of pay items and traceability
  json      ProjectOutput as JSON
  yaml      ProjectOutput as YAML

Examples:
  # Markdown report with the built-in rules
  ecagent process project.yaml

  # Custom rules, JSON to a file
  ecagent process --rules rules.yaml --format json -o out.json project.yaml

  # Several projects, metrics for the node exporter textfile collector
  ecagent process --metrics-out /var/lib/node_exporter/ecagent.prom projects/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: processProjects,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&processFlags.rules, "rules", "r", "", "rule file (overrides rules.file)")
	processCmd.Flags().StringVarP(&processFlags.format, "format", "f", formatMarkdown, "output format: markdown, table, json, yaml")
	processCmd.Flags().StringVarP(&processFlags.output, "output", "o", "", "output file (default: stdout)")
	processCmd.Flags().BoolVar(&processFlags.noEvidence, "no-evidence", false, "do not record runs in the evidence store")
	processCmd.Flags().StringVar(&processFlags.metricsOut, "metrics-out", "", "write run metrics in Prometheus text format to this file")
}

func processProjects(cmd *cobra.Command, args []string) error {
	if err := checkReportFormat(processFlags.format); err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	rules, _, err := loadRules(cfg, processFlags.rules)
	if err != nil {
		return cli.NewCommandError("process", err)
	}
	version := provenance(logger, rules.SourceFile)

	var engineMetrics *metrics.EngineMetrics
	opts := pipelineOptions{}
	if cfg.Telemetry.Metrics.Enabled || processFlags.metricsOut != "" {
		engineMetrics = metrics.NewEngineMetrics(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
		opts.observer = engineMetrics
	}
	if cfg.Evidence.Enabled && !processFlags.noEvidence {
		evStore, err := openEvidence(cfg, logger)
		if err != nil {
			return cli.NewCommandError("process", err)
		}
		defer evStore.Close()
		opts.evidence = evStore
	}

	p, err := newPipeline(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	w, closeOutput, err := openOutput(cmd, processFlags.output)
	if err != nil {
		return cli.NewCommandError("process", err)
	}
	defer closeOutput()

	runErr := runProjects(ctx, cmd, p, args, rules, version, w)

	if processFlags.metricsOut != "" {
		if err := prometheus.WriteToTextfile(processFlags.metricsOut, engineMetrics.Registry()); err != nil {
			return cli.NewCommandError("process", fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	if runErr != nil {
		return cli.NewCommandError("process", runErr)
	}
	return nil
}

// runProjects processes every path and renders successful results to w. A
// single project fails fast; a batch reports progress and keeps going.
func runProjects(ctx context.Context, cmd *cobra.Command, p *pipeline, paths []string, rules *ast.RuleSet, version *evidence.RuleSetVersion, w io.Writer) error {
	if len(paths) == 1 {
		res, err := p.run(ctx, paths[0], rules, version)
		if err != nil {
			return err
		}
		return p.render(w, processFlags.format, res)
	}

	batch := cli.NewBatch(cmd.ErrOrStderr(), len(paths))
	written := 0
	for _, path := range paths {
		res, err := p.run(ctx, path, rules, version)
		if err == nil {
			if written > 0 {
				fmt.Fprint(w, separator(processFlags.format))
			}
			err = p.render(w, processFlags.format, res)
			written++
		}
		batch.Done(path, err)
	}
	return batch.Finish()
}

// provenance looks up the git history of the rule file. Failures are logged
// and leave the run without provenance.
func provenance(logger *slog.Logger, path string) *evidence.RuleSetVersion {
	version, err := store.Provenance(path)
	if err != nil {
		logger.Warn("rule provenance unavailable", "path", path, "error", err)
		return nil
	}
	return version
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
