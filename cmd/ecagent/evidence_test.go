package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/evidence"
)

func resetEvidenceFlags(t *testing.T) {
	t.Helper()
	prev := evidenceFlags
	evidenceFlags = evidenceOptions{format: "text", exportAs: "json"}
	t.Cleanup(func() { evidenceFlags = prev })
}

// recordRuns processes the sample project n times so the evidence store in
// dir holds n successful runs.
func recordRuns(t *testing.T, dir string, n int) {
	t.Helper()
	resetProcessFlags(t)
	processFlags.format = formatJSON
	path := writeFile(t, dir, "sr37.yaml", sampleProject)

	for i := 0; i < n; i++ {
		cmd, _ := newTestCommand()
		if err := processProjects(cmd, []string{path}); err != nil {
			t.Fatalf("processProjects() error = %v", err)
		}
	}
}

func TestQueryEvidence(t *testing.T) {
	dir := useConfig(t, "")
	recordRuns(t, dir, 2)

	t.Run("text", func(t *testing.T) {
		resetEvidenceFlags(t)
		cmd, out := newTestCommand()
		if err := queryEvidence(cmd, nil); err != nil {
			t.Fatalf("queryEvidence() error = %v", err)
		}
		for _, want := range []string{"Total records: 2", "SR 37 Widening", "success"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("output missing %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("json with filters", func(t *testing.T) {
		resetEvidenceFlags(t)
		evidenceFlags.format = "json"
		evidenceFlags.rule = "STEEP_SLOPE_001"
		evidenceFlags.limit = 1

		cmd, out := newTestCommand()
		if err := queryEvidence(cmd, nil); err != nil {
			t.Fatalf("queryEvidence() error = %v", err)
		}
		var records []evidence.RunRecord
		if err := json.Unmarshal(out.Bytes(), &records); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out.String())
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		r := records[0]
		if r.ProjectName != "SR 37 Widening" || r.Status != "success" || r.RuleSetSource != "<defaults>" {
			t.Errorf("record = %+v", r)
		}
		if r.FactsHash == "" || r.RuleSetHash == "" || r.RulesFired == 0 {
			t.Errorf("record missing hashes or fired rules: %+v", r)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		resetEvidenceFlags(t)
		evidenceFlags.project = "US 31 Bypass"
		cmd, out := newTestCommand()
		if err := queryEvidence(cmd, nil); err != nil {
			t.Fatalf("queryEvidence() error = %v", err)
		}
		if !strings.Contains(out.String(), "No records found.") {
			t.Errorf("output = %q", out.String())
		}
	})
}

func TestExportEvidence_CSV(t *testing.T) {
	dir := useConfig(t, "")
	recordRuns(t, dir, 2)
	resetEvidenceFlags(t)
	evidenceFlags.exportAs = "csv"
	evidenceFlags.output = filepath.Join(dir, "out", "runs.csv")

	cmd, _ := newTestCommand()
	if err := exportEvidence(cmd, nil); err != nil {
		t.Fatalf("exportEvidence() error = %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(readFile(t, evidenceFlags.output))).ReadAll()
	if err != nil {
		t.Fatalf("export is not CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header and 2 records", len(rows))
	}
	if rows[0][0] != "id" || rows[1][1] != "SR 37 Widening" {
		t.Errorf("rows = %v", rows[:2])
	}
}

func TestExportEvidence_UnknownFormat(t *testing.T) {
	useConfig(t, "")
	resetEvidenceFlags(t)
	evidenceFlags.exportAs = "xml"

	cmd, _ := newTestCommand()
	err := exportEvidence(cmd, nil)
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("exportEvidence() error = %v, want ConfigError", err)
	}
}

func TestPruneEvidence_MaxRecords(t *testing.T) {
	dir := useConfig(t, "")
	recordRuns(t, dir, 3)
	resetEvidenceFlags(t)
	evidenceFlags.maxRecords = 1

	cmd, out := newTestCommand()
	if err := pruneEvidence(cmd, nil); err != nil {
		t.Fatalf("pruneEvidence() error = %v", err)
	}
	if !strings.Contains(out.String(), "Pruned 2 run records") {
		t.Errorf("output = %q", out.String())
	}

	resetEvidenceFlags(t)
	cmd, out = newTestCommand()
	if err := queryEvidence(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Total records: 1") {
		t.Errorf("after prune: %s", out.String())
	}
}

func TestProcessProjects_NoEvidence(t *testing.T) {
	dir := useConfig(t, "")
	resetProcessFlags(t)
	processFlags.format = formatJSON
	processFlags.noEvidence = true
	path := writeFile(t, dir, "sr37.yaml", sampleProject)

	cmd, _ := newTestCommand()
	if err := processProjects(cmd, []string{path}); err != nil {
		t.Fatal(err)
	}

	resetEvidenceFlags(t)
	cmd, out := newTestCommand()
	if err := queryEvidence(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Total records: 0") {
		t.Errorf("output = %q", out.String())
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name    string
		set     func()
		wantErr bool
	}{
		{"empty", func() {}, false},
		{"time range", func() { evidenceFlags.timeRange = "2026-03-01T00:00:00Z/2026-04-01T00:00:00Z" }, false},
		{"bad time range", func() { evidenceFlags.timeRange = "2026-03-01" }, true},
		{"bad status", func() { evidenceFlags.status = "pending" }, true},
		{"bad sort field", func() { evidenceFlags.sortBy = "project_file; DROP TABLE" }, true},
		{"inverted costs", func() { evidenceFlags.minCost, evidenceFlags.maxCost = 500, 100 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEvidenceFlags(t)
			tt.set()
			q, err := buildQuery()
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && cli.ExitCode(err) != 2 {
				t.Errorf("ExitCode() = %d, want 2", cli.ExitCode(err))
			}
			if err == nil && evidenceFlags.timeRange != "" && (q.StartTime == nil || q.EndTime == nil) {
				t.Errorf("time range not applied: %+v", q)
			}
		})
	}
}

func TestParseTimeRange(t *testing.T) {
	start, end, err := parseTimeRange("2026-03-01T00:00:00Z/2026-04-01T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v / %v", start, end)
	}

	for _, bad := range []string{"", "a/b/c", "yesterday/2026-04-01T00:00:00Z", "2026-03-01T00:00:00Z/tomorrow"} {
		if _, _, err := parseTimeRange(bad); err == nil {
			t.Errorf("parseTimeRange(%q) succeeded", bad)
		}
	}
}
