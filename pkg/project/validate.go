package project

import (
	"fmt"
	"math"
	"strings"

	ruleErrors "ecagent-hq/ecagent/pkg/rules/errors"
)

// Validate checks the project against the input schema and returns every
// problem found as an ErrorList of ValidationErrors.
func (p *ProjectInput) Validate() error {
	errs := ruleErrors.NewErrorList()
	file := p.SourceFile

	if strings.TrimSpace(p.ProjectName) == "" {
		errs.AddValidation(file, "", "project_name", "is required")
	}
	if strings.TrimSpace(p.Jurisdiction) == "" {
		errs.AddValidation(file, "", "jurisdiction", "is required")
	}
	if !(p.TotalDisturbedAcres > 0) || math.IsInf(p.TotalDisturbedAcres, 0) {
		errs.AddValidation(file, "", "total_disturbed_acres", "must be greater than 0")
	}
	if !p.PredominantSoil.IsValid() {
		errs.AddValidation(file, "", "predominant_soil", fmt.Sprintf("unknown soil type %q", p.PredominantSoil))
	}
	if !p.PredominantSlope.IsValid() {
		errs.AddValidation(file, "", "predominant_slope", fmt.Sprintf("unknown slope type %q", p.PredominantSlope))
	}
	if p.AverageSlopePercent < 0 || p.AverageSlopePercent > 100 || math.IsNaN(p.AverageSlopePercent) {
		errs.AddValidation(file, "", "average_slope_percent", "must be between 0 and 100")
	}

	seen := make(map[string]bool)
	for i, df := range p.DrainageFeatures {
		field := fmt.Sprintf("drainage_features[%d]", i)
		if df.ID == "" {
			errs.AddValidation(file, "", field+".id", "is required")
		} else if seen[df.ID] {
			errs.AddValidation(file, "", field+".id", fmt.Sprintf("duplicate drainage feature id %q", df.ID))
		}
		seen[df.ID] = true
		if df.Type == "" {
			errs.AddValidation(file, "", field+".type", "is required")
		}
		if df.Location == "" {
			errs.AddValidation(file, "", field+".location", "is required")
		}
		if !(df.DrainageAreaAcres > 0) {
			errs.AddValidation(file, "", field+".drainage_area_acres", "must be greater than 0")
		}
	}

	for i, ph := range p.Phases {
		field := fmt.Sprintf("phases[%d]", i)
		if ph.PhaseID == "" {
			errs.AddValidation(file, "", field+".phase_id", "is required")
		}
		if ph.Name == "" {
			errs.AddValidation(file, "", field+".name", "is required")
		}
		if ph.DurationDays <= 0 {
			errs.AddValidation(file, "", field+".duration_days", "must be greater than 0")
		}
		if ph.DisturbedAcres < 0 {
			errs.AddValidation(file, "", field+".disturbed_acres", "must not be negative")
		}
	}

	return errs.ToError()
}
