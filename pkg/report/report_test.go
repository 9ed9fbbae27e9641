package report

import (
	"bytes"
	"strings"
	"testing"

	"ecagent-hq/ecagent/pkg/engine"
	"ecagent-hq/ecagent/pkg/project"
)

func sampleOutput() *engine.ProjectOutput {
	cost := 2.5
	out := &engine.ProjectOutput{
		ProjectName: "Highway 101 Widening",
		Timestamp:   "2026-03-14T09:30:00Z",
		TemporaryPractices: []engine.Practice{{
			PracticeType:  "silt_fence",
			IsTemporary:   true,
			Quantity:      1040,
			Unit:          "LF",
			Location:      "Site perimeter",
			RuleID:        "SILT_FENCE_001",
			RuleSource:    "INDOT Standard Specifications 205",
			Justification: "Perimeter control required.",
			Citation: &engine.CitationRef{
				Status: engine.CitationRetrieved,
				DocID:  "INDOT-SS-2024",
				Page:   3,
				Label:  `[INDOT:INDOT-SS-2024 p.3 "Silt fence shall be installed"]`,
			},
		}},
		PermanentPractices: []engine.Practice{{
			PracticeType: "permanent_seeding",
			Quantity:     5.2,
			Unit:         "AC",
			RuleID:       "PERM_SEED_001",
			RuleSource:   "INDOT 621",
		}},
		PayItems: []engine.PayItem{
			{ItemNumber: "EC-001", Description: "Silt Fence, Type A", Quantity: 1040, Unit: "LF", EstimatedUnitCost: &cost, PriceSource: "rule", ECPracticeRef: "silt_fence_SILT_FENCE_001", RuleID: "SILT_FENCE_001"},
			{ItemNumber: "EC-010", Description: "Permanent Seeding Mix", Quantity: 5.2, Unit: "AC", ECPracticeRef: "permanent_seeding_PERM_SEED_001", RuleID: "PERM_SEED_001"},
		},
		Summary: engine.Summary{
			RulesEvaluated:      5,
			RulesFired:          2,
			UnverifiedCitations: 1,
			Annotations: []engine.Annotation{
				{RuleID: "PERM_SEED_001", Kind: engine.AnnotationCitation, Message: "no matching reference passage"},
			},
		},
	}
	out.RecomputeTotals()
	return out
}

func TestWriteMarkdown(t *testing.T) {
	p := &project.ProjectInput{
		ProjectName:         "Highway 101 Widening",
		TotalDisturbedAcres: 5.2,
		PredominantSoil:     project.SoilClay,
		PredominantSlope:    project.SlopeModerate,
		Metadata:            map[string]any{"near_water": false, "max_slope_percent": 12},
	}

	var buf bytes.Buffer
	err := WriteMarkdown(&buf, Report{
		Project:          p,
		Output:           sampleOutput(),
		MissingResources: []string{"Missing document file resources/cgp.html"},
	})
	if err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}
	md := buf.String()

	sections := []string{
		"# INDOT Erosion Control Recommendations",
		"## Executive summary",
		"## Inputs",
		"## Temporary erosion control recommendations",
		"## Permanent erosion control recommendations",
		"## Pay items",
		"## Traceability matrix",
		"## Assumptions and clarifying questions",
		"## Annotations and risks",
		"## Needs INDOT resource",
	}
	last := -1
	for _, s := range sections {
		i := strings.Index(md, s)
		if i < 0 {
			t.Fatalf("missing section %q", s)
		}
		if i < last {
			t.Errorf("section %q out of order", s)
		}
		last = i
	}

	wants := []string{
		"estimated cost: $2600.00",
		"Disturbed area: 5.2 acres",
		"**silt_fence** (SILT_FENCE_001): 1040 LF at Site perimeter.",
		`[INDOT:INDOT-SS-2024 p.3 "Silt fence shall be installed"]`,
		"No INDOT citation available (placeholder)",
		"EC-001",
		"2.50 (rule)",
		"Are there inlets within or downstream of the project limits?",
		"**PERM_SEED_001** (citation): no matching reference passage",
		"- Missing INDOT resource: Missing document file resources/cgp.html",
	}
	for _, w := range wants {
		if !strings.Contains(md, w) {
			t.Errorf("report missing %q", w)
		}
	}
	if strings.Contains(md, "What are the maximum exposed slopes") {
		t.Error("answered question still asked")
	}
}

func TestWriteMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	out := &engine.ProjectOutput{ProjectName: "Empty"}
	if err := WriteMarkdown(&buf, Report{Output: out}); err != nil {
		t.Fatal(err)
	}
	md := buf.String()
	for _, w := range []string{"- None identified", "No pay items mapped.", "(project input not available)", "All referenced INDOT resources present"} {
		if !strings.Contains(md, w) {
			t.Errorf("report missing %q", w)
		}
	}

	if err := WriteMarkdown(&buf, Report{}); err == nil {
		t.Error("expected error without output")
	}
}

func TestWriteTables(t *testing.T) {
	var buf bytes.Buffer
	WriteTables(&buf, sampleOutput())
	s := buf.String()
	for _, w := range []string{"silt_fence", "permanent_seeding", "EC-010", "2600.00", "(5 rules evaluated, 2 fired, 1 annotations)"} {
		if !strings.Contains(s, w) {
			t.Errorf("tables missing %q", w)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := map[float64]string{1040: "1040", 5.2: "5.2", 0.125: "0.13", 2: "2", 0: "0"}
	for in, want := range tests {
		if got := formatQuantity(in); got != want {
			t.Errorf("formatQuantity(%v) = %q, want %q", in, got, want)
		}
	}
}
