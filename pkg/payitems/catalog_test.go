package payitems

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecagent-hq/ecagent/pkg/engine"
)

const testCatalog = `
catalog:
  - pay_item_number: EC-001
    description: Silt Fence, Type A
    unit: LF
    notes: Per 205.03
    source_doc_id: INDOT-SS-2024
  - pay_item_number: EC-002
    description: Inlet Protection Device
    unit: EA
practice_map:
  silt_fence:
    - pay_item_number: EC-001
      notes: Perimeter only.
  inlet_protection:
    - pay_item_number: EC-002
    - pay_item_number: EC-099
      unit: EA
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	item, ok := c.Lookup(" EC-002 ")
	if !ok || item.SourceDocID != UnknownSource {
		t.Errorf("Lookup(EC-002) = %+v, %v", item, ok)
	}
	if got := strings.Join(c.Numbers(), ","); got != "EC-001,EC-002" {
		t.Errorf("Numbers() = %s", got)
	}

	if _, err := Parse([]byte("catalog:\n  - description: nothing\n")); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("missing number error = %v", err)
	}
	if _, err := Parse([]byte("catalog: [")); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("bad yaml error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pay_items.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil || c.Len() != 2 {
		t.Fatalf("Load() = %v, %v", c, err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestForPractices(t *testing.T) {
	c, _ := Parse([]byte(testCatalog))

	matches := c.ForPractices([]string{"silt_fence", "inlet_protection", "riprap"})
	if len(matches) != 3 {
		t.Fatalf("len = %d, want 3", len(matches))
	}

	fence := matches[0]
	if !fence.Verified || fence.Notes != "Perimeter only. Per 205.03" || fence.SourceDocID != "INDOT-SS-2024" {
		t.Errorf("silt fence match = %+v", fence)
	}

	unknown := matches[2]
	if unknown.Verified {
		t.Error("EC-099 should be unverified")
	}
	if unknown.Description != VerifyMarker || unknown.Notes != VerifyMarker || unknown.SourceDocID != UnknownSource {
		t.Errorf("unknown match = %+v", unknown)
	}
}

func TestVerify(t *testing.T) {
	c, _ := Parse([]byte(testCatalog))
	out := &engine.ProjectOutput{
		PayItems: []engine.PayItem{
			{ItemNumber: "EC-001", Unit: "lf", RuleID: "R1"},
			{ItemNumber: "EC-002", Unit: "LF", RuleID: "R2", Description: "Inlet"},
			{ItemNumber: "EC-404", Unit: "EA", RuleID: "R3"},
			{ItemNumber: "", RuleID: "R4"},
		},
	}

	if got := c.Verify(out); got != 2 {
		t.Fatalf("Verify() = %d, want 2", got)
	}
	if out.PayItems[0].Description != "Silt Fence, Type A" || len(out.PayItems[0].Annotations) != 0 {
		t.Errorf("EC-001 = %+v", out.PayItems[0])
	}
	if out.PayItems[1].Description != "Inlet" {
		t.Error("existing description overwritten")
	}
	for _, i := range []int{1, 2} {
		anns := out.PayItems[i].Annotations
		if len(anns) != 1 || anns[0].Kind != engine.AnnotationPayItem || !strings.HasPrefix(anns[0].Message, VerifyMarker) {
			t.Errorf("pay item %d annotations = %+v", i, anns)
		}
	}
	if len(out.Summary.Annotations) != 2 {
		t.Errorf("summary annotations = %d", len(out.Summary.Annotations))
	}

	var nilCatalog *Catalog
	if nilCatalog.Verify(out) != 0 {
		t.Error("nil catalog should verify nothing")
	}
}
