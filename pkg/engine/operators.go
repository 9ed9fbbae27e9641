package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ecagent-hq/ecagent/pkg/rules/ast"
	ruleErrors "ecagent-hq/ecagent/pkg/rules/errors"
)

// errTypeMismatch marks operand combinations an operator cannot compare. The
// matcher treats it as a non-match rather than a failure.
var errTypeMismatch = errors.New("operand type mismatch")

// evaluateOperator compares a resolved field value against the rule literal.
func evaluateOperator(op ast.Operator, actual, expected any) (bool, error) {
	switch op {
	case ast.OpEqual:
		return evaluateEqual(actual, expected), nil

	case ast.OpNotEqual:
		return !evaluateEqual(actual, expected), nil

	case ast.OpGreater:
		return compareNumeric(actual, expected, func(a, b float64) bool { return a > b })

	case ast.OpGreaterEqual:
		return compareNumeric(actual, expected, func(a, b float64) bool { return a >= b })

	case ast.OpLess:
		return compareNumeric(actual, expected, func(a, b float64) bool { return a < b })

	case ast.OpLessEqual:
		return compareNumeric(actual, expected, func(a, b float64) bool { return a <= b })

	case ast.OpIn:
		return evaluateIn(actual, expected)

	case ast.OpContains:
		return evaluateContains(actual, expected)

	case ast.OpBetween:
		return evaluateBetween(actual, expected)

	case ast.OpExists:
		return actual != nil, nil

	case ast.OpMissing:
		return actual == nil, nil

	default:
		return false, ruleErrors.NewConfigurationError("",
			fmt.Sprintf("unsupported operator %q", op), ruleErrors.ErrUnsupportedOperator)
	}
}

// evaluateEqual compares numbers by value, enum-like strings by their
// underlying string, and everything else structurally.
func evaluateEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	actualNum, actualErr := convertToFloat64(actual)
	expectedNum, expectedErr := convertToFloat64(expected)
	if actualErr == nil && expectedErr == nil {
		return actualNum == expectedNum
	}

	actualStr, actualOK := underlyingString(actual)
	expectedStr, expectedOK := underlyingString(expected)
	if actualOK && expectedOK {
		return actualStr == expectedStr
	}

	return reflect.DeepEqual(actual, expected)
}

func compareNumeric(actual, expected any, cmp func(a, b float64) bool) (bool, error) {
	a, err := convertToFloat64(actual)
	if err != nil {
		return false, errTypeMismatch
	}
	b, err := convertToFloat64(expected)
	if err != nil {
		return false, errTypeMismatch
	}
	return cmp(a, b), nil
}

// evaluateIn checks membership of actual in the expected collection.
func evaluateIn(actual, expected any) (bool, error) {
	items, ok := asSlice(expected)
	if !ok {
		return false, errTypeMismatch
	}
	for _, item := range items {
		if evaluateEqual(actual, item) {
			return true, nil
		}
	}
	return false, nil
}

// evaluateContains checks for a substring in a string or an element in a list.
func evaluateContains(actual, expected any) (bool, error) {
	if s, ok := underlyingString(actual); ok {
		sub, ok := underlyingString(expected)
		if !ok {
			return false, errTypeMismatch
		}
		return strings.Contains(s, sub), nil
	}

	items, ok := asSlice(actual)
	if !ok {
		return false, errTypeMismatch
	}
	for _, item := range items {
		if evaluateEqual(item, expected) {
			return true, nil
		}
	}
	return false, nil
}

// evaluateBetween checks low <= actual <= high.
func evaluateBetween(actual, expected any) (bool, error) {
	bounds, ok := asSlice(expected)
	if !ok || len(bounds) != 2 {
		return false, errTypeMismatch
	}
	v, err := convertToFloat64(actual)
	if err != nil {
		return false, errTypeMismatch
	}
	low, err := convertToFloat64(bounds[0])
	if err != nil {
		return false, errTypeMismatch
	}
	high, err := convertToFloat64(bounds[1])
	if err != nil {
		return false, errTypeMismatch
	}
	return low <= v && v <= high, nil
}

func asSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// underlyingString returns the value of any string-kinded type, so named
// enum types compare equal to plain strings.
func underlyingString(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// convertToFloat64 converts integer and float kinds to float64. Booleans and
// strings are not numbers.
func convertToFloat64(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}
