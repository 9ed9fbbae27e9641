package engine

import (
	"context"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"ecagent-hq/ecagent/pkg/project"
	"ecagent-hq/ecagent/pkg/rules/ast"
)

func randomProject(acres float64, slope string, drains int) *project.ProjectInput {
	p := &project.ProjectInput{
		ProjectName:         "generated",
		Jurisdiction:        "Indiana",
		TotalDisturbedAcres: acres,
		PredominantSoil:     project.SoilLoam,
		PredominantSlope:    project.SlopeType(slope),
	}
	for i := 0; i < drains; i++ {
		p.DrainageFeatures = append(p.DrainageFeatures, project.DrainageFeature{
			ID: "DF", Type: "inlet", Location: "x", DrainageAreaAcres: 1,
		})
	}
	return p
}

var slopeGen = gen.OneConstOf("flat", "gentle", "moderate", "steep", "very_steep")

// Property-based test: practices and pay items trace to the same rule ids
func TestEngine_PropertyTraceability(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	eng := newTestEngine(t)
	rules := defaultRules(t)

	properties.Property("rule ids on practices equal rule ids on pay items", prop.ForAll(
		func(acres float64, slope string, drains int) bool {
			out, err := eng.ProcessProject(context.Background(), randomProject(acres, slope, drains), rules)
			if err != nil {
				return false
			}

			practiceIDs := make(map[string]int)
			for _, p := range out.Practices() {
				practiceIDs[p.RuleID]++
			}
			payIDs := make(map[string]int)
			for _, item := range out.PayItems {
				payIDs[item.RuleID]++
			}
			if len(practiceIDs) != len(payIDs) {
				return false
			}
			for id, n := range practiceIDs {
				if n != 1 || payIDs[id] != 1 {
					return false
				}
			}
			return out.Summary.TotalPayItems == len(out.PayItems) &&
				out.Summary.TotalTemporaryPractices+out.Summary.TotalPermanentPractices == len(out.PayItems)
		},
		gen.Float64Range(0, 500),
		slopeGen,
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}

// Property-based test: total cost is the rounded sum of quantity times unit cost
func TestEngine_PropertyTotalCost(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	eng := newTestEngine(t)
	rules := defaultRules(t)

	properties.Property("total_estimated_cost = round2(sum(unit_cost * quantity))", prop.ForAll(
		func(acres float64, slope string, drains int) bool {
			out, err := eng.ProcessProject(context.Background(), randomProject(acres, slope, drains), rules)
			if err != nil {
				return false
			}
			var sum float64
			for _, item := range out.PayItems {
				if item.EstimatedUnitCost != nil {
					sum += *item.EstimatedUnitCost * item.Quantity
				}
			}
			return out.Summary.TotalEstimatedCost == math.Round(sum*100)/100
		},
		gen.Float64Range(0, 500),
		slopeGen,
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}

// Property-based test: between includes both bounds
func TestMatcher_PropertyBetweenInclusive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	m := NewMatcher(nil)

	properties.Property("low <= v <= high matches exactly when v is within the bounds", prop.ForAll(
		func(a, b, v float64) bool {
			low, high := math.Min(a, b), math.Max(a, b)
			cond := ast.Leaf("v", ast.OpBetween, []any{low, high})

			for _, probe := range []float64{low, high, v} {
				got, err := m.Match(context.Background(), cond, project.Facts{"v": probe})
				if err != nil {
					return false
				}
				if got != (low <= probe && probe <= high) {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}

// Property-based test: evaluation order depends only on priorities
func TestEngine_PropertyPriorityDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("rules are evaluated in non-decreasing priority order", prop.ForAll(
		func(priorities []int) bool {
			rules := make([]*ast.Rule, len(priorities))
			for i, prio := range priorities {
				rules[i] = &ast.Rule{
					ID:       string(rune('A'+i%26)) + string(rune('0'+i/26)),
					Priority: prio,
					Action:   ast.Action{PracticeType: ast.PracticeMulch, QuantityFormula: "1"},
				}
			}
			obs := &recordingObserver{}
			eng := newTestEngine(t, func(c *EngineConfig) { c.WithObserver(obs) })
			if _, err := eng.Process(context.Background(), project.Facts{}, ast.NewRuleSet(rules, "", "")); err != nil {
				return false
			}

			prio := make(map[string]int, len(rules))
			for _, r := range rules {
				prio[r.ID] = r.Priority
			}
			for i := 1; i < len(obs.evaluated); i++ {
				if prio[obs.evaluated[i-1]] > prio[obs.evaluated[i]] {
					return false
				}
			}
			return len(obs.evaluated) == len(rules)
		},
		gen.SliceOfN(20, gen.IntRange(0, 5)),
	))

	properties.TestingRun(t)
}
