package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ecagent-hq/ecagent/pkg/project"
	"ecagent-hq/ecagent/pkg/rules/ast"
	ruleErrors "ecagent-hq/ecagent/pkg/rules/errors"
)

// Matcher evaluates rule condition trees against facts.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a condition matcher.
func NewMatcher(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

// MatchRule evaluates a rule's conditions, attributing configuration errors
// to the rule.
func (m *Matcher) MatchRule(ctx context.Context, rule *ast.Rule, facts project.Facts) (bool, error) {
	matched, err := m.Match(ctx, rule.Conditions, facts)
	if err != nil {
		var cfgErr *ruleErrors.ConfigurationError
		if errors.As(err, &cfgErr) && cfgErr.RuleID == "" {
			attributed := *cfgErr
			attributed.RuleID = rule.ID
			attributed.File = rule.Location.File
			return false, &attributed
		}
		return false, err
	}
	return matched, nil
}

// Match evaluates a condition tree. A nil condition always matches. Missing
// fields and type mismatches make a leaf false; only malformed trees and
// unsupported operators return an error.
func (m *Matcher) Match(ctx context.Context, cond *ast.Condition, facts project.Facts) (bool, error) {
	if cond == nil {
		return true, nil
	}

	switch cond.Kind {
	case ast.KindLeaf:
		return m.matchLeaf(cond, facts)

	case ast.KindAnd:
		return m.matchAnd(ctx, cond, facts)

	case ast.KindOr:
		return m.matchOr(ctx, cond, facts)

	case ast.KindNot:
		return m.matchNot(ctx, cond, facts)

	default:
		return false, ruleErrors.NewConfigurationError("",
			fmt.Sprintf("unknown condition kind %q", cond.Kind), ruleErrors.ErrMalformedCondition)
	}
}

func (m *Matcher) matchLeaf(cond *ast.Condition, facts project.Facts) (bool, error) {
	actual, found := resolveField(facts, cond.Field)
	if !found {
		if !cond.Operator.IsValid() {
			return false, ruleErrors.NewConfigurationError("",
				fmt.Sprintf("unsupported operator %q", cond.Operator), ruleErrors.ErrUnsupportedOperator)
		}
		m.logger.Debug("field not resolved",
			"field", cond.Field,
			"operator", cond.Operator,
		)
		return cond.Operator == ast.OpMissing, nil
	}

	matched, err := evaluateOperator(cond.Operator, actual, cond.Value)
	if err != nil {
		if errors.Is(err, errTypeMismatch) {
			m.logger.Debug("operand types not comparable",
				"field", cond.Field,
				"operator", cond.Operator,
				"actual_type", fmt.Sprintf("%T", actual),
				"expected_type", fmt.Sprintf("%T", cond.Value),
			)
			return false, nil
		}
		return false, err
	}

	m.logger.Debug("condition evaluated",
		"field", cond.Field,
		"operator", cond.Operator,
		"expected", cond.Value,
		"actual", actual,
		"matched", matched,
	)
	return matched, nil
}

// matchAnd is true when every child holds; an empty conjunction is true.
func (m *Matcher) matchAnd(ctx context.Context, cond *ast.Condition, facts project.Facts) (bool, error) {
	for _, child := range cond.Children {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		matched, err := m.Match(ctx, child, facts)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// matchOr is true when any child holds; an empty disjunction is false.
func (m *Matcher) matchOr(ctx context.Context, cond *ast.Condition, facts project.Facts) (bool, error) {
	for _, child := range cond.Children {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		matched, err := m.Match(ctx, child, facts)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) matchNot(ctx context.Context, cond *ast.Condition, facts project.Facts) (bool, error) {
	if len(cond.Children) != 1 {
		return false, ruleErrors.NewConfigurationError("",
			fmt.Sprintf("not requires exactly one condition, got %d", len(cond.Children)),
			ruleErrors.ErrMalformedCondition)
	}

	matched, err := m.Match(ctx, cond.Children[0], facts)
	if err != nil {
		return false, err
	}
	return !matched, nil
}
