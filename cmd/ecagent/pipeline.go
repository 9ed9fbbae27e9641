package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ecagent-hq/ecagent/pkg/citation"
	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/config"
	"ecagent-hq/ecagent/pkg/engine"
	"ecagent-hq/ecagent/pkg/evidence"
	"ecagent-hq/ecagent/pkg/evidence/recorder"
	"ecagent-hq/ecagent/pkg/payitems"
	"ecagent-hq/ecagent/pkg/project"
	"ecagent-hq/ecagent/pkg/report"
	"ecagent-hq/ecagent/pkg/rules/ast"
	"ecagent-hq/ecagent/pkg/telemetry/logging"
	"ecagent-hq/ecagent/pkg/telemetry/tracing"
)

// Report formats accepted by process and watch.
const (
	formatMarkdown = "markdown"
	formatTable    = "table"
	formatJSON     = "json"
	formatYAML     = "yaml"
)

func checkReportFormat(format string) error {
	switch format {
	case formatMarkdown, formatTable, formatJSON, formatYAML:
		return nil
	}
	return cli.NewConfigError("format", fmt.Sprintf("unknown format %q (want markdown, table, json or yaml)", format))
}

type pipelineOptions struct {
	// observer receives engine events. Optional.
	observer engine.Observer

	// evidence receives run records. nil disables recording.
	evidence evidence.Storage
}

// pipeline processes project files: evaluate rules, bind citations, verify
// pay items and record the run.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	engine   *engine.Engine
	binder   *citation.Binder
	catalog  *payitems.Catalog
	recorder *recorder.Recorder
	tracer   *tracing.Tracer
	missing  []string
	closers  []func() error
}

// processed is the result of one project run.
type processed struct {
	Input  *project.ProjectInput
	Output *engine.ProjectOutput
	Record *evidence.RunRecord
}

func newPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts pipelineOptions) (*pipeline, error) {
	p := &pipeline{cfg: cfg, logger: logger}

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}
	p.tracer = tracer
	p.closers = append(p.closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tracer.Shutdown(shutdownCtx)
	})

	engineConfig := engine.DefaultEngineConfig()
	engineConfig.DefaultQuantity = cfg.Engine.DefaultQuantity
	prices, err := openPrices(cfg, logger)
	if err != nil {
		p.Close()
		return nil, err
	}
	if prices != nil {
		engineConfig.WithPrices(prices)
		p.closers = append(p.closers, prices.Close)
	}
	if opts.observer != nil {
		engineConfig.WithObserver(opts.observer)
	}
	p.engine, err = engine.New(engineConfig, logger)
	if err != nil {
		p.Close()
		return nil, cli.NewConfigError("engine", err.Error())
	}

	p.catalog, err = loadCatalog(cfg)
	if err != nil {
		p.Close()
		return nil, cli.NewConfigError("pay_items.catalog_path", err.Error())
	}

	p.binder, p.missing = newBinder(cfg, logger)

	if opts.evidence != nil {
		p.recorder = recorder.New(opts.evidence, &recorder.Config{
			Enabled:      true,
			Async:        cfg.Evidence.Recorder.Async,
			AsyncBuffer:  cfg.Evidence.Recorder.AsyncBuffer,
			WriteTimeout: cfg.Evidence.Recorder.WriteTimeout,
		}, logger)
		p.closers = append(p.closers, p.recorder.Close)
	}
	return p, nil
}

// Close releases everything the pipeline opened, newest first.
func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// run processes the project file at path against rules. Runs that get as
// far as evaluation are recorded whether or not they succeed.
func (p *pipeline) run(ctx context.Context, path string, rules *ast.RuleSet, version *evidence.RuleSetVersion) (res *processed, err error) {
	started := time.Now().UTC()
	ctx, span := p.tracer.Start(ctx, "ecagent.process",
		trace.WithAttributes(
			attribute.String("project.file", path),
			attribute.String("rules.hash", rules.Hash),
		),
	)
	defer func() {
		tracing.SetStatus(span, err)
		span.End()
	}()

	input, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithProject(ctx, input.ProjectName)
	ctx = logging.WithRuleSet(ctx, rules.Hash)

	res = &processed{Input: input}
	if err = input.Validate(); err == nil {
		res.Output, err = p.process(ctx, input, rules)
	}

	if p.recorder != nil {
		record, recErr := p.recorder.Record(ctx, recorder.Run{
			Facts:       input.Facts(),
			ProjectFile: path,
			Rules:       rules,
			Version:     version,
			Output:      res.Output,
			Err:         err,
			Started:     started,
		})
		if recErr != nil {
			p.logger.WarnContext(ctx, "failed to record run", "project_file", path, "error", recErr)
		}
		res.Record = record
		if record != nil {
			p.logger.DebugContext(ctx, "run recorded", "run_id", record.ID, "status", record.Status)
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *pipeline) process(ctx context.Context, input *project.ProjectInput, rules *ast.RuleSet) (*engine.ProjectOutput, error) {
	out, err := p.engine.ProcessProject(ctx, input, rules)
	if err != nil {
		return nil, err
	}
	out, err = p.binder.Bind(ctx, out, rules)
	if err != nil {
		return nil, err
	}
	if n := p.catalog.Verify(out); n > 0 {
		p.logger.WarnContext(ctx, "pay items need verification", "count", n)
	}
	p.logger.InfoContext(ctx, "project processed",
		"rules_fired", out.Summary.RulesFired,
		"pay_items", out.Summary.TotalPayItems,
		"estimated_cost", out.Summary.TotalEstimatedCost,
		"unverified_citations", out.Summary.UnverifiedCitations,
	)
	return out, nil
}

// render writes res in format.
func (p *pipeline) render(w io.Writer, format string, res *processed) error {
	switch format {
	case formatMarkdown:
		return report.WriteMarkdown(w, report.Report{
			Project:          res.Input,
			Output:           res.Output,
			MissingResources: p.missing,
			Placeholder:      citationPolicy(p.cfg).Placeholder(),
		})
	case formatTable:
		report.WriteTables(w, res.Output)
		return nil
	default:
		formatter, err := cli.NewFormatter(cli.OutputFormat(format))
		if err != nil {
			return err
		}
		return formatter.FormatTo(w, res.Output)
	}
}

// separator is written between consecutive documents in one stream.
func separator(format string) string {
	switch format {
	case formatMarkdown:
		return "\n---\n\n"
	case formatYAML:
		return "---\n"
	case formatTable:
		return "\n"
	}
	return ""
}
