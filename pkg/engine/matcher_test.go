package engine

import (
	"context"
	"errors"
	"testing"

	"ecagent-hq/ecagent/pkg/project"
	"ecagent-hq/ecagent/pkg/rules/ast"
	ruleErrors "ecagent-hq/ecagent/pkg/rules/errors"
)

type slopeClass string

func testFacts() project.Facts {
	return project.Facts{
		"total_disturbed_acres": 5.2,
		"average_slope_percent": 30,
		"predominant_slope":     "steep",
		"predominant_soil":      "clay",
		"project_name":          "Highway 101 Widening",
		"is_urban":              true,
		"nullable":              nil,
		"drainage_features":     []any{map[string]any{"id": "DI-1"}, map[string]any{"id": "DI-2"}},
		"tags":                  []any{"wetland", "bridge"},
		"enum_slope":            slopeClass("very_steep"),
		"metadata": map[string]any{
			"season": "spring",
			"county": map[string]any{"name": "Marion"},
		},
	}
}

// TestMatcher_Leaf covers every operator against resolved fields.
func TestMatcher_Leaf(t *testing.T) {
	tests := []struct {
		name string
		cond *ast.Condition
		want bool
	}{
		{"eq number", ast.Leaf("total_disturbed_acres", ast.OpEqual, 5.2), true},
		{"eq int vs float", ast.Leaf("average_slope_percent", ast.OpEqual, 30.0), true},
		{"eq string", ast.Leaf("predominant_soil", ast.OpEqual, "clay"), true},
		{"eq bool", ast.Leaf("is_urban", ast.OpEqual, true), true},
		{"eq enum underlying", ast.Leaf("enum_slope", ast.OpEqual, "very_steep"), true},
		{"ne", ast.Leaf("predominant_soil", ast.OpNotEqual, "sand"), true},
		{"gt", ast.Leaf("total_disturbed_acres", ast.OpGreater, 5), true},
		{"gt equal", ast.Leaf("total_disturbed_acres", ast.OpGreater, 5.2), false},
		{"gte", ast.Leaf("total_disturbed_acres", ast.OpGreaterEqual, 5.2), true},
		{"lt", ast.Leaf("average_slope_percent", ast.OpLess, 25), false},
		{"lte", ast.Leaf("average_slope_percent", ast.OpLessEqual, 30), true},
		{"gt on string is false", ast.Leaf("predominant_soil", ast.OpGreater, 1), false},
		{"in", ast.Leaf("predominant_slope", ast.OpIn, []any{"steep", "very_steep"}), true},
		{"in miss", ast.Leaf("predominant_slope", ast.OpIn, []any{"flat"}), false},
		{"in enum underlying", ast.Leaf("enum_slope", ast.OpIn, []any{"steep", "very_steep"}), true},
		{"in non-list is false", ast.Leaf("predominant_slope", ast.OpIn, "steep"), false},
		{"contains substring", ast.Leaf("project_name", ast.OpContains, "101"), true},
		{"contains element", ast.Leaf("tags", ast.OpContains, "wetland"), true},
		{"contains element miss", ast.Leaf("tags", ast.OpContains, "river"), false},
		{"between inside", ast.Leaf("average_slope_percent", ast.OpBetween, []any{15, 40}), true},
		{"between low bound", ast.Leaf("average_slope_percent", ast.OpBetween, []any{30, 40}), true},
		{"between high bound", ast.Leaf("average_slope_percent", ast.OpBetween, []any{15, 30}), true},
		{"between outside", ast.Leaf("average_slope_percent", ast.OpBetween, []any{31, 40}), false},
		{"exists", ast.Leaf("metadata.season", ast.OpExists, nil), true},
		{"exists nil value", ast.Leaf("nullable", ast.OpExists, nil), false},
		{"missing", ast.Leaf("metadata.near_water", ast.OpMissing, nil), true},
		{"missing present", ast.Leaf("metadata.season", ast.OpMissing, nil), false},
		{"nested path", ast.Leaf("metadata.county.name", ast.OpEqual, "Marion"), true},
		{"derived count", ast.Leaf("drainage_feature_count", ast.OpEqual, 2), true},
		{"derived flag", ast.Leaf("has_drainage_features", ast.OpEqual, true), true},
	}

	m := NewMatcher(nil)
	facts := testFacts()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(context.Background(), tt.cond, facts)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%s) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

// TestMatcher_UnresolvedField verifies missing fields are false for every operator except missing.
func TestMatcher_UnresolvedField(t *testing.T) {
	m := NewMatcher(nil)
	facts := testFacts()

	for _, op := range ast.Operators() {
		t.Run(string(op), func(t *testing.T) {
			got, err := m.Match(context.Background(), ast.Leaf("nonexistent_field", op, 1), facts)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			want := op == ast.OpMissing
			if got != want {
				t.Errorf("Match(nonexistent_field %s) = %v, want %v", op, got, want)
			}
		})
	}
}

func TestMatcher_Composites(t *testing.T) {
	yes := ast.Leaf("predominant_soil", ast.OpEqual, "clay")
	no := ast.Leaf("predominant_soil", ast.OpEqual, "sand")

	tests := []struct {
		name string
		cond *ast.Condition
		want bool
	}{
		{"nil is true", nil, true},
		{"empty and is true", ast.And(), true},
		{"empty or is false", ast.Or(), false},
		{"and all true", ast.And(yes, yes), true},
		{"and one false", ast.And(yes, no), false},
		{"or one true", ast.Or(no, yes), true},
		{"or all false", ast.Or(no, no), false},
		{"not true", ast.Not(yes), false},
		{"not false", ast.Not(no), true},
		{"nested", ast.Or(ast.And(yes, ast.Not(no)), no), true},
	}

	m := NewMatcher(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(context.Background(), tt.cond, testFacts())
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMatcher_ShortCircuit verifies later children are not evaluated once the result is known.
func TestMatcher_ShortCircuit(t *testing.T) {
	bad := ast.Leaf("predominant_soil", ast.Operator("like"), "c%")
	no := ast.Leaf("predominant_soil", ast.OpEqual, "sand")
	yes := ast.Leaf("predominant_soil", ast.OpEqual, "clay")

	m := NewMatcher(nil)
	if got, err := m.Match(context.Background(), ast.And(no, bad), testFacts()); err != nil || got {
		t.Errorf("and short-circuit = %v, %v", got, err)
	}
	if got, err := m.Match(context.Background(), ast.Or(yes, bad), testFacts()); err != nil || !got {
		t.Errorf("or short-circuit = %v, %v", got, err)
	}
}

func TestMatcher_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		cond     *ast.Condition
		sentinel error
	}{
		{"unsupported operator", ast.Leaf("predominant_soil", ast.Operator("like"), "c%"), ruleErrors.ErrUnsupportedOperator},
		{"unsupported operator on missing field", ast.Leaf("nope", ast.Operator("like"), "c%"), ruleErrors.ErrUnsupportedOperator},
		{"not with two children", &ast.Condition{Kind: ast.KindNot, Children: []*ast.Condition{ast.And(), ast.And()}}, ruleErrors.ErrMalformedCondition},
		{"not with no children", &ast.Condition{Kind: ast.KindNot}, ruleErrors.ErrMalformedCondition},
		{"unknown kind", &ast.Condition{Kind: "xor"}, ruleErrors.ErrMalformedCondition},
	}

	m := NewMatcher(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &ast.Rule{ID: "BAD_001", Conditions: tt.cond, Location: ast.Location{File: "rules.yaml"}}
			_, err := m.MatchRule(context.Background(), rule, testFacts())

			var cfgErr *ruleErrors.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("MatchRule() error = %v, want *ConfigurationError", err)
			}
			if cfgErr.RuleID != "BAD_001" || cfgErr.File != "rules.yaml" {
				t.Errorf("error not attributed to rule: %+v", cfgErr)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v) = false", tt.sentinel)
			}
		})
	}
}

func TestMatcher_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cond := ast.And(ast.Leaf("predominant_soil", ast.OpEqual, "clay"))
	if _, err := NewMatcher(nil).Match(ctx, cond, testFacts()); !errors.Is(err, context.Canceled) {
		t.Errorf("Match() error = %v, want context.Canceled", err)
	}
}
