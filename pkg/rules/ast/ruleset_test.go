package ast

import (
	"testing"
)

// TestNewRuleSet_PriorityOrder verifies rules are sorted ascending and ties keep document order.
func TestNewRuleSet_PriorityOrder(t *testing.T) {
	rules := []*Rule{
		{ID: "c", Priority: 30},
		{ID: "a", Priority: 10},
		{ID: "b1", Priority: 20},
		{ID: "b2", Priority: 20},
	}

	rs := NewRuleSet(rules, "rules.yaml", "")

	got := rs.IDs()
	want := []string{"a", "b1", "b2", "c"}
	if len(got) != len(want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Input slice untouched
	if rules[0].ID != "c" {
		t.Errorf("NewRuleSet reordered caller slice")
	}
}

func TestRuleSet_Get(t *testing.T) {
	rs := NewRuleSet([]*Rule{{ID: "SILT_FENCE_001"}}, "", "")

	if _, ok := rs.Get("SILT_FENCE_001"); !ok {
		t.Error("Get() did not find existing rule")
	}
	if _, ok := rs.Get("NOPE"); ok {
		t.Error("Get() found missing rule")
	}

	var nilSet *RuleSet
	if nilSet.Len() != 0 {
		t.Error("nil rule set should have length 0")
	}
}

func TestParsePracticeType(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"silt_fence", false},
		{"detention_basin", false},
		{"hay_bales", true},
		{"", true},
		{"Silt_Fence", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParsePracticeType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePracticeType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}

	if len(PracticeTypes()) != 14 {
		t.Errorf("PracticeTypes() has %d entries, want 14", len(PracticeTypes()))
	}
}

func TestCondition_String(t *testing.T) {
	cond := And(
		Leaf("total_disturbed_acres", OpGreater, 0),
		Not(Leaf("predominant_slope", OpEqual, "flat")),
		Leaf("metadata.near_water", OpExists, nil),
	)

	want := "and(total_disturbed_acres gt 0, not(predominant_slope eq flat), metadata.near_water exists)"
	if got := cond.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	fields := cond.Fields()
	if len(fields) != 3 || fields[0] != "total_disturbed_acres" {
		t.Errorf("Fields() = %v", fields)
	}
}

func TestRule_PracticeRef(t *testing.T) {
	r := &Rule{ID: "SILT_FENCE_001", Action: Action{PracticeType: PracticeSiltFence}}
	if got := r.PracticeRef(); got != "silt_fence_SILT_FENCE_001" {
		t.Errorf("PracticeRef() = %q", got)
	}
}
