package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ecagent-hq/ecagent/pkg/evidence"
)

func records() []*evidence.RunRecord {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []*evidence.RunRecord{
		{
			ID: "run-1", ProjectName: "Alpha, Phase 1", StartedTime: t0, RecordedTime: t0.Add(time.Second),
			Duration: 1500 * time.Millisecond, RuleSetHash: "h1", RulesFired: 2,
			FiredRules: []evidence.FiredRule{{RuleID: "A"}, {RuleID: "B"}},
			RuleSetVersion: &evidence.RuleSetVersion{CommitSHA: "abc"},
			TotalEstimatedCost: 2600, Status: evidence.StatusSuccess,
		},
		{ID: "run-2", ProjectName: "Beta", Status: evidence.StatusError, Error: "boom"},
	}
}

func TestJSONExporter(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		if err := NewJSONExporter(pretty).Export(context.Background(), records(), &buf); err != nil {
			t.Fatal(err)
		}
		var decoded []evidence.RunRecord
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("pretty=%v: invalid JSON: %v", pretty, err)
		}
		if len(decoded) != 2 || decoded[0].FiredRules[1].RuleID != "B" {
			t.Errorf("decoded = %+v", decoded)
		}
	}

	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil || buf.String() != "[]" {
		t.Errorf("empty export = %q, %v", buf.String(), err)
	}
}

func TestJSONExporter_Stream(t *testing.T) {
	ch := make(chan *evidence.RunRecord, 2)
	for _, r := range records() {
		ch <- r
	}
	close(ch)

	var buf bytes.Buffer
	if err := NewJSONExporter(true).ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatal(err)
	}
	var decoded []evidence.RunRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || len(decoded) != 2 {
		t.Fatalf("decoded %d records, err = %v\n%s", len(decoded), err, buf.String())
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), records(), &buf); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || len(rows[0]) != len(Header) {
		t.Fatalf("rows = %d, columns = %d", len(rows), len(rows[0]))
	}

	row := map[string]string{}
	for i, h := range Header {
		row[h] = rows[1][i]
	}
	want := map[string]string{
		"project_name":         "Alpha, Phase 1",
		"started_time":         "2026-01-02T03:04:05Z",
		"duration_ms":          "1500",
		"rule_set_commit":      "abc",
		"fired_rule_ids":       "A;B",
		"total_estimated_cost": "2600.00",
	}
	for k, v := range want {
		if row[k] != v {
			t.Errorf("%s = %q, want %q", k, row[k], v)
		}
	}
	if rows[2][len(Header)-1] != "boom" || rows[2][3] != "" {
		t.Errorf("error row = %v", rows[2])
	}
}

func TestCSVExporter_Stream(t *testing.T) {
	ch := make(chan *evidence.RunRecord)
	go func() {
		defer close(ch)
		for i := 0; i < 250; i++ {
			ch <- &evidence.RunRecord{ID: "r", Status: evidence.StatusSuccess}
		}
	}()

	var buf bytes.Buffer
	if err := NewCSVExporter(false).ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 250 {
		t.Errorf("lines = %d, want 250", lines)
	}
}
