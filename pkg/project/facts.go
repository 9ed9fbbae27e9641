package project

import (
	"strings"
)

// Facts is the flat-or-nested mapping rules are evaluated against. Nested
// values are map[string]any; lists are []any. The engine treats Facts as
// read-only.
type Facts map[string]any

// Derived fact names pre-populated by ProjectInput.Facts.
const (
	FactHasDrainageFeatures    = "has_drainage_features"
	FactDrainageFeatureCount   = "drainage_feature_count"
	FactPhaseCount             = "phase_count"
	FactTotalDrainageAreaAcres = "total_drainage_area_acres"
	FactDrainageFeatureTypes   = "drainage_feature_types"
)

// Facts flattens the project into a fact mapping. Enum fields are stored as
// their string values and derived counts are pre-populated.
func (p *ProjectInput) Facts() Facts {
	features := make([]any, 0, len(p.DrainageFeatures))
	types := make([]any, 0, len(p.DrainageFeatures))
	var drainageArea float64
	for _, df := range p.DrainageFeatures {
		feature := map[string]any{
			"id":                  df.ID,
			"type":                df.Type,
			"location":            df.Location,
			"drainage_area_acres": df.DrainageAreaAcres,
		}
		if len(df.AdditionalProperties) > 0 {
			feature["additional_properties"] = copyMap(df.AdditionalProperties)
		}
		features = append(features, feature)
		types = append(types, df.Type)
		drainageArea += df.DrainageAreaAcres
	}

	phases := make([]any, 0, len(p.Phases))
	for _, ph := range p.Phases {
		phases = append(phases, map[string]any{
			"phase_id":        ph.PhaseID,
			"name":            ph.Name,
			"duration_days":   ph.DurationDays,
			"disturbed_acres": ph.DisturbedAcres,
			"description":     ph.Description,
		})
	}

	facts := Facts{
		"project_name":          p.ProjectName,
		"jurisdiction":          p.Jurisdiction,
		"total_disturbed_acres": p.TotalDisturbedAcres,
		"predominant_soil":      string(p.PredominantSoil),
		"predominant_slope":     string(p.PredominantSlope),
		"average_slope_percent": p.AverageSlopePercent,
		"drainage_features":     features,
		"phases":                phases,
		"metadata":              copyMap(p.Metadata),

		FactHasDrainageFeatures:    len(p.DrainageFeatures) > 0,
		FactDrainageFeatureCount:   len(p.DrainageFeatures),
		FactPhaseCount:             len(p.Phases),
		FactTotalDrainageAreaAcres: drainageArea,
		FactDrainageFeatureTypes:   types,
	}
	return facts
}

// Lookup resolves a dotted path through nested maps. It returns false when any
// segment is missing or traverses a non-map value.
func (f Facts) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = map[string]any(f)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Facts:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
