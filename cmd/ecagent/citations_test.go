package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"ecagent-hq/ecagent/pkg/citation/index"
)

func writeCorpus(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, filepath.Join("resources", index.ManifestName), `
- doc_id: INDOT-SS-2024
  filename: specs.txt
- doc_id: EPA-CGP-2022
  filename: cgp.txt
`)
	writeFile(t, dir, "resources/specs.txt", "Silt fence shall be installed along the perimeter of the disturbed area before grading begins.")
	writeFile(t, dir, "resources/cgp.txt", "Silt fence or other perimeter controls must be installed before earth disturbance.")
}

func resetCitationsFlags(t *testing.T) {
	t.Helper()
	prev := citationsFlags
	citationsFlags.dir = ""
	citationsFlags.topK = 0
	citationsFlags.format = "text"
	t.Cleanup(func() { citationsFlags = prev })
}

func TestSearchCitations(t *testing.T) {
	dir := useConfig(t, "")
	resetCitationsFlags(t)
	writeCorpus(t, dir)
	citationsFlags.format = "json"

	cmd, out := newTestCommand()
	if err := searchCitations(cmd, []string{"silt", "fence", "perimeter"}); err != nil {
		t.Fatalf("searchCitations() error = %v", err)
	}

	var hits []searchHit
	if err := json.Unmarshal(out.Bytes(), &hits); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	for _, h := range hits {
		wantAccepted := strings.HasPrefix(h.DocID, "INDOT")
		if h.Accepted != wantAccepted {
			t.Errorf("%s accepted = %v, want %v", h.DocID, h.Accepted, wantAccepted)
		}
		if !strings.HasPrefix(h.Label, "[INDOT:"+h.DocID) {
			t.Errorf("label = %q", h.Label)
		}
	}
}

func TestSearchCitations_NoResources(t *testing.T) {
	useConfig(t, "")
	resetCitationsFlags(t)

	cmd, _ := newTestCommand()
	if err := searchCitations(cmd, []string{"silt"}); err == nil {
		t.Error("expected error without a resources manifest")
	}
}

func TestCheckCitations(t *testing.T) {
	dir := useConfig(t, "")
	resetCitationsFlags(t)

	cmd, out := newTestCommand()
	if err := checkCitations(cmd, nil); err == nil {
		t.Error("expected error for missing manifest")
	}
	if !strings.Contains(out.String(), "Missing manifest") {
		t.Errorf("output = %q", out.String())
	}

	writeCorpus(t, dir)
	cmd, out = newTestCommand()
	if err := checkCitations(cmd, nil); err != nil {
		t.Fatalf("checkCitations() error = %v", err)
	}
	if !strings.Contains(out.String(), "all manifest documents present") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSearchHitsString(t *testing.T) {
	if got := (searchHits{}).String(); got != "No matching passages." {
		t.Errorf("String() = %q", got)
	}
	hits := searchHits{{Label: "[INDOT:EPA p.1]", Accepted: false}}
	if !strings.Contains(hits.String(), "rejected by citation policy") {
		t.Errorf("String() = %q", hits.String())
	}
}
