package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/config"
	"ecagent-hq/ecagent/pkg/evidence"
	"ecagent-hq/ecagent/pkg/evidence/export"
	"ecagent-hq/ecagent/pkg/evidence/query"
	"ecagent-hq/ecagent/pkg/evidence/retention"
)

// evidenceOptions holds the flags shared by the evidence subcommands.
type evidenceOptions struct {
	backend    string
	timeRange  string
	project    string
	rule       string
	ruleSet    string
	status     string
	minCost    float64
	maxCost    float64
	limit      int
	offset     int
	sortBy     string
	sortOrder  string
	format     string
	exportAs   string
	output     string
	days       int
	maxRecords int64
}

var evidenceFlags = evidenceOptions{format: "text", exportAs: "json"}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query the evidence trail",
	Long: `Query, export and prune run records.

Every processed project leaves a run record: the facts hash, the rule set
hash and git provenance, the rules that fired with their citations, and the
totals.

Subcommands:
  query   - Query run records with filters
  export  - Stream matching run records as JSON or CSV
  prune   - Apply the retention policy now

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-03-01T00:00:00Z/2026-04-01T00:00:00Z"`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query run records",
	Long: `Query run records with filters.

Examples:
  # Runs for one project
  ecagent evidence query --project "SR 37 Widening"

  # Runs where a rule fired, in March
  ecagent evidence query --rule STEEP_SLOPE_001 --time-range "2026-03-01T00:00:00Z/2026-04-01T00:00:00Z"

  # Most expensive runs as JSON
  ecagent evidence query --sort-by total_estimated_cost --format json`,
	Args: cobra.NoArgs,
	RunE: queryEvidence,
}

var evidenceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run records",
	Long: `Stream run records matching the filters to a file or stdout.

Examples:
  ecagent evidence export --format csv -o runs.csv
  ecagent evidence export --project "SR 37 Widening" --format json`,
	Args: cobra.NoArgs,
	RunE: exportEvidence,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy",
	Long: `Delete run records older than the retention period, then the oldest
records beyond the maximum count. Records are archived first when
evidence.retention.archive_before_delete is set.

Examples:
  ecagent evidence prune
  ecagent evidence prune --days 30`,
	Args: cobra.NoArgs,
	RunE: pruneEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidenceExportCmd, evidencePruneCmd)

	evidenceCmd.PersistentFlags().StringVar(&evidenceFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")

	for _, c := range []*cobra.Command{evidenceQueryCmd, evidenceExportCmd} {
		c.Flags().StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		c.Flags().StringVar(&evidenceFlags.project, "project", "", "filter by project name")
		c.Flags().StringVar(&evidenceFlags.rule, "rule", "", "filter by fired rule id")
		c.Flags().StringVar(&evidenceFlags.ruleSet, "rule-set", "", "filter by rule set hash")
		c.Flags().StringVar(&evidenceFlags.status, "status", "", "filter by status (success, error)")
		c.Flags().Float64Var(&evidenceFlags.minCost, "min-cost", 0, "minimum total estimated cost")
		c.Flags().Float64Var(&evidenceFlags.maxCost, "max-cost", 0, "maximum total estimated cost")
		c.Flags().StringVar(&evidenceFlags.sortBy, "sort-by", "", "sort field: started_time, recorded_time, total_estimated_cost, rules_fired")
		c.Flags().StringVar(&evidenceFlags.sortOrder, "sort-order", "", "sort order: asc, desc")
		c.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
	}
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", 0, "max results (default: evidence.query.default_limit)")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	evidenceQueryCmd.Flags().StringVarP(&evidenceFlags.format, "format", "f", "text", "output format: text, json, csv")
	evidenceExportCmd.Flags().StringVarP(&evidenceFlags.exportAs, "format", "f", "json", "output format: json, csv")

	evidencePruneCmd.Flags().IntVar(&evidenceFlags.days, "days", 0, "retention period in days (default: evidence.retention.days)")
	evidencePruneCmd.Flags().Int64Var(&evidenceFlags.maxRecords, "max-records", 0, "records to keep (default: evidence.retention.max_records)")
}

// openEvidenceFromFlags loads config and opens the evidence store, honouring
// --backend.
func openEvidenceFromFlags(cmd *cobra.Command) (*config.Config, evidence.Storage, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	if evidenceFlags.backend != "" {
		cfg.Evidence.Backend = evidenceFlags.backend
	}
	s, err := openEvidence(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

// buildQuery turns the filter flags into a validated query.
func buildQuery() (*evidence.Query, error) {
	q := &evidence.Query{
		ProjectName: evidenceFlags.project,
		RuleID:      evidenceFlags.rule,
		RuleSetHash: evidenceFlags.ruleSet,
		Status:      evidenceFlags.status,
		Limit:       evidenceFlags.limit,
		Offset:      evidenceFlags.offset,
		SortBy:      evidenceFlags.sortBy,
		SortOrder:   evidenceFlags.sortOrder,
	}
	if evidenceFlags.timeRange != "" {
		start, end, err := parseTimeRange(evidenceFlags.timeRange)
		if err != nil {
			return nil, cli.NewConfigError("time-range", err.Error())
		}
		q.StartTime, q.EndTime = &start, &end
	}
	if evidenceFlags.minCost > 0 {
		minCost := evidenceFlags.minCost
		q.MinCost = &minCost
	}
	if evidenceFlags.maxCost > 0 {
		maxCost := evidenceFlags.maxCost
		q.MaxCost = &maxCost
	}
	if err := query.Validate(q); err != nil {
		return nil, cli.NewConfigError("query", err.Error())
	}
	return q, nil
}

func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

// streamExporter is implemented by the JSON and CSV exporters.
type streamExporter interface {
	evidence.Exporter
	ExportStream(ctx context.Context, records <-chan *evidence.RunRecord, w io.Writer) error
}

func newExporter(cfg *config.Config, format string) (streamExporter, error) {
	switch format {
	case "json":
		return export.NewJSONExporter(cfg.Evidence.Export.JSONPretty), nil
	case "csv":
		return export.NewCSVExporter(cfg.Evidence.Export.CSVIncludeHeader), nil
	}
	return nil, cli.NewConfigError("format", fmt.Sprintf("unsupported export format %q (want json or csv)", format))
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	q, err := buildQuery()
	if err != nil {
		return err
	}
	cfg, s, err := openEvidenceFromFlags(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if q.Limit == 0 {
		q.Limit = cfg.Evidence.Query.DefaultLimit
	}
	query.ApplyDefaults(q)

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.Evidence.Query.Timeout)
	defer cancel()

	records, err := s.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence query", fmt.Errorf("query failed: %w", err))
	}

	w, closeOutput, err := openOutput(cmd, evidenceFlags.output)
	if err != nil {
		return cli.NewCommandError("evidence query", err)
	}
	defer closeOutput()

	if evidenceFlags.format == "text" || evidenceFlags.format == "" {
		return writeRecordsText(w, records, q)
	}
	exporter, err := newExporter(cfg, evidenceFlags.format)
	if err != nil {
		return err
	}
	return exporter.Export(ctx, records, w)
}

func writeRecordsText(w io.Writer, records []*evidence.RunRecord, q *evidence.Query) error {
	if q.StartTime != nil && q.EndTime != nil {
		fmt.Fprintf(w, "Time range: %s to %s\n",
			q.StartTime.Format(time.RFC3339),
			q.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Total records: %d\n", len(records))
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Started", "Project", "Status", "Fired", "Cost", "Rule Set", "Commit", "ID"})
	for _, r := range records {
		commit := ""
		if r.RuleSetVersion != nil {
			commit = shortHash(r.RuleSetVersion.CommitSHA)
			if r.RuleSetVersion.Dirty {
				commit += "+dirty"
			}
		}
		t.AppendRow(table.Row{
			r.StartedTime.Format(time.RFC3339),
			r.ProjectName,
			r.Status,
			r.RulesFired,
			money(r.TotalEstimatedCost),
			shortHash(r.RuleSetHash),
			commit,
			r.ID,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	if len(records) == q.Limit {
		fmt.Fprintf(w, "\nShowing %d records from offset %d. Use --limit and --offset for pagination.\n", len(records), q.Offset)
	}
	return nil
}

func exportEvidence(cmd *cobra.Command, args []string) error {
	q, err := buildQuery()
	if err != nil {
		return err
	}
	cfg, s, err := openEvidenceFromFlags(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	exporter, err := newExporter(cfg, evidenceFlags.exportAs)
	if err != nil {
		return err
	}
	query.ApplyDefaults(q)
	q.Limit = 0

	ctx := commandContext(cmd)
	recordsCh, errCh, err := s.QueryStream(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}

	w, closeOutput, err := openOutput(cmd, evidenceFlags.output)
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}
	defer closeOutput()

	if err := exporter.ExportStream(ctx, recordsCh, w); err != nil {
		return cli.NewCommandError("evidence export", err)
	}
	if err := <-errCh; err != nil {
		return cli.NewCommandError("evidence export", err)
	}
	return nil
}

func retentionConfig(cfg *config.Config) *retention.Config {
	return &retention.Config{
		RetentionDays:       cfg.Evidence.Retention.Days,
		PruneSchedule:       cfg.Evidence.Retention.PruneSchedule,
		ArchiveBeforeDelete: cfg.Evidence.Retention.ArchiveBeforeDelete,
		ArchivePath:         cfg.Evidence.Retention.ArchivePath,
		MaxRecords:          cfg.Evidence.Retention.MaxRecords,
	}
}

func pruneEvidence(cmd *cobra.Command, args []string) error {
	cfg, s, err := openEvidenceFromFlags(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rc := retentionConfig(cfg)
	if evidenceFlags.days > 0 {
		rc.RetentionDays = evidenceFlags.days
	}
	if evidenceFlags.maxRecords > 0 {
		rc.MaxRecords = evidenceFlags.maxRecords
	}

	pruner := retention.NewPruner(s, rc, nil)
	deleted, err := pruner.Prune(commandContext(cmd))
	if err != nil {
		return cli.NewCommandError("evidence prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d run records (retention %d days, max records %d)\n",
		deleted, rc.RetentionDays, rc.MaxRecords)
	return nil
}
