package engine

import (
	"reflect"

	"ecagent-hq/ecagent/pkg/project"
)

// resolveField looks up a dotted path in the facts. Derived drainage fields
// are computed from a drainage_features list when the caller supplied raw
// facts without them.
func resolveField(facts project.Facts, path string) (any, bool) {
	if v, ok := facts.Lookup(path); ok {
		if v == nil {
			return nil, false
		}
		return v, true
	}

	switch path {
	case project.FactHasDrainageFeatures:
		if n, ok := drainageFeatureCount(facts); ok {
			return n > 0, true
		}
	case project.FactDrainageFeatureCount:
		if n, ok := drainageFeatureCount(facts); ok {
			return n, true
		}
	}
	return nil, false
}

func drainageFeatureCount(facts project.Facts) (int, bool) {
	v, ok := facts.Lookup("drainage_features")
	if !ok || v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, false
	}
	return rv.Len(), true
}

// numericBindings collects every numeric fact, keyed by dotted path, for use
// as formula identifiers. Booleans are not numeric.
func numericBindings(facts project.Facts) map[string]float64 {
	out := make(map[string]float64)
	collectNumeric("", map[string]any(facts), out)

	for _, derived := range []string{project.FactDrainageFeatureCount} {
		if _, ok := out[derived]; ok {
			continue
		}
		if v, ok := resolveField(facts, derived); ok {
			if f, err := convertToFloat64(v); err == nil {
				out[derived] = f
			}
		}
	}
	return out
}

func collectNumeric(prefix string, m map[string]any, out map[string]float64) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			collectNumeric(key, val, out)
		case project.Facts:
			collectNumeric(key, map[string]any(val), out)
		default:
			if f, err := convertToFloat64(v); err == nil {
				out[key] = f
			}
		}
	}
}
