package main

import (
	"encoding/json"
	"strings"
	"testing"
)

const customRules = `
rules:
  - id: DUST_001
    name: Dust control on large sites
    source: INDOT Standard Specifications 205
    priority: 5
    conditions:
      - field: total_disturbed_acres
        operator: gt
        value: 10
    action:
      practice_type: dust_control
      is_temporary: true
      quantity_formula: total_disturbed_acres
      unit: ACRE
      location_template: Haul roads and exposed areas
      justification: Large exposed areas generate dust.
      pay_item_number: EC-020
      pay_item_description: Dust Palliative
`

func resetRulesFlags(t *testing.T) {
	t.Helper()
	prev := rulesFlags
	rulesFlags.format = "text"
	rulesFlags.file = ""
	t.Cleanup(func() { rulesFlags = prev })
}

func TestLintRules_Defaults(t *testing.T) {
	useConfig(t, "")
	resetRulesFlags(t)

	cmd, out := newTestCommand()
	if err := lintRules(cmd, nil); err != nil {
		t.Fatalf("lintRules() error = %v", err)
	}
	if !strings.Contains(out.String(), "✓ <defaults>") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "1 of 1 files valid") {
		t.Errorf("output = %q", out.String())
	}
}

func TestLintRules_Files(t *testing.T) {
	dir := useConfig(t, "")
	resetRulesFlags(t)
	rulesFlags.format = "json"

	good := writeFile(t, dir, "good.yaml", customRules)
	bad := writeFile(t, dir, "bad.yaml", "rules:\n  - id: X\n    conditions:\n      - field: a\n        operator: approx\n        value: 1\n")
	missing := dir + "/missing.yaml"

	cmd, out := newTestCommand()
	err := lintRules(cmd, []string{good, bad, missing})
	if err == nil {
		t.Fatal("expected error for invalid rule files")
	}
	if !strings.Contains(err.Error(), "2 of 3 rule files are invalid") {
		t.Errorf("error = %v", err)
	}

	var results []lintResult
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Valid || results[0].Rules != 1 || results[0].Hash == "" {
		t.Errorf("good file result = %+v", results[0])
	}
	if results[1].Valid || len(results[1].Errors) == 0 {
		t.Errorf("bad file result = %+v", results[1])
	}
	if results[2].Valid {
		t.Errorf("missing file result = %+v", results[2])
	}
}

func TestListRules(t *testing.T) {
	dir := useConfig(t, "")
	resetRulesFlags(t)

	t.Run("defaults as table", func(t *testing.T) {
		cmd, out := newTestCommand()
		if err := listRules(cmd, nil); err != nil {
			t.Fatalf("listRules() error = %v", err)
		}
		for _, id := range []string{"SILT_FENCE_001", "INLET_PROT_001", "STEEP_SLOPE_001", "CONSTRUCTION_ENT_001", "PERM_SEED_001"} {
			if !strings.Contains(out.String(), id) {
				t.Errorf("table missing %s", id)
			}
		}
	})

	t.Run("custom file as json", func(t *testing.T) {
		rulesFlags.format = "json"
		rulesFlags.file = writeFile(t, dir, "custom.yaml", customRules)

		cmd, out := newTestCommand()
		if err := listRules(cmd, nil); err != nil {
			t.Fatalf("listRules() error = %v", err)
		}
		var got []ruleSummary
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(got) != 1 || got[0].ID != "DUST_001" || got[0].Practice != "dust_control" || !got[0].Temporary {
			t.Errorf("got %+v", got)
		}
	})
}

func TestShortHash(t *testing.T) {
	if got := shortHash("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("shortHash() = %q", got)
	}
	if got := shortHash("abc"); got != "abc" {
		t.Errorf("shortHash() = %q", got)
	}
}
