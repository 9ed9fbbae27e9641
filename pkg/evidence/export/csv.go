package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"ecagent-hq/ecagent/pkg/evidence"
)

// CSVExporter exports run records as CSV, one row per run.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header is the CSV header row.
var Header = []string{
	"id", "project_name", "project_file",
	"started_time", "recorded_time", "duration_ms",
	"facts_hash", "rule_set_hash", "rule_set_source", "rule_set_commit",
	"rules_evaluated", "rules_fired", "fired_rule_ids",
	"total_estimated_cost", "unverified_citations", "annotations",
	"status", "error",
}

// Export writes records as CSV.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.RunRecord, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}
	for _, record := range records {
		if err := writer.Write(recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

// ExportStream writes records from recordsCh as CSV until the channel
// closes, flushing every 100 rows.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *evidence.RunRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", 0, err)
		}
	}

	recordCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", recordCount, err)
				}
				return nil
			}

			if err := writer.Write(recordToRow(record)); err != nil {
				return evidence.NewExportError("csv", recordCount, err)
			}
			recordCount++

			if recordCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", recordCount, err)
				}
			}
		}
	}
}

func recordToRow(record *evidence.RunRecord) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	ids := make([]string, len(record.FiredRules))
	for i, f := range record.FiredRules {
		ids[i] = f.RuleID
	}
	commit := ""
	if record.RuleSetVersion != nil {
		commit = record.RuleSetVersion.CommitSHA
	}

	return []string{
		record.ID,
		record.ProjectName,
		record.ProjectFile,
		formatTime(record.StartedTime),
		formatTime(record.RecordedTime),
		strconv.FormatInt(record.Duration.Milliseconds(), 10),
		record.FactsHash,
		record.RuleSetHash,
		record.RuleSetSource,
		commit,
		strconv.Itoa(record.RulesEvaluated),
		strconv.Itoa(record.RulesFired),
		strings.Join(ids, ";"),
		strconv.FormatFloat(record.TotalEstimatedCost, 'f', 2, 64),
		strconv.Itoa(record.UnverifiedCitations),
		strconv.Itoa(record.Annotations),
		record.Status,
		record.Error,
	}
}
