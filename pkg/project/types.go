package project

// SoilType classifies the predominant soil on the site.
type SoilType string

const (
	SoilClay    SoilType = "clay"
	SoilSilt    SoilType = "silt"
	SoilSand    SoilType = "sand"
	SoilGravel  SoilType = "gravel"
	SoilLoam    SoilType = "loam"
	SoilBedrock SoilType = "bedrock"
)

// IsValid reports whether s is a known soil type.
func (s SoilType) IsValid() bool {
	switch s {
	case SoilClay, SoilSilt, SoilSand, SoilGravel, SoilLoam, SoilBedrock:
		return true
	}
	return false
}

// SlopeType classifies slope steepness.
type SlopeType string

const (
	SlopeFlat      SlopeType = "flat"       // 0-5%
	SlopeGentle    SlopeType = "gentle"     // 5-15%
	SlopeModerate  SlopeType = "moderate"   // 15-25%
	SlopeSteep     SlopeType = "steep"      // 25-50%
	SlopeVerySteep SlopeType = "very_steep" // >50%
)

// IsValid reports whether s is a known slope class.
func (s SlopeType) IsValid() bool {
	switch s {
	case SlopeFlat, SlopeGentle, SlopeModerate, SlopeSteep, SlopeVerySteep:
		return true
	}
	return false
}

// DrainageFeature is an inlet, outfall, culvert or similar structure.
type DrainageFeature struct {
	ID                   string         `json:"id" yaml:"id"`
	Type                 string         `json:"type" yaml:"type"`
	Location             string         `json:"location" yaml:"location"`
	DrainageAreaAcres    float64        `json:"drainage_area_acres" yaml:"drainage_area_acres"`
	AdditionalProperties map[string]any `json:"additional_properties,omitempty" yaml:"additional_properties,omitempty"`
}

// Phase is one construction phase.
type Phase struct {
	PhaseID        string  `json:"phase_id" yaml:"phase_id"`
	Name           string  `json:"name" yaml:"name"`
	DurationDays   int     `json:"duration_days" yaml:"duration_days"`
	DisturbedAcres float64 `json:"disturbed_acres" yaml:"disturbed_acres"`
	Description    string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// ProjectInput describes a roadway project for erosion-control planning.
type ProjectInput struct {
	ProjectName         string            `json:"project_name" yaml:"project_name"`
	Jurisdiction        string            `json:"jurisdiction" yaml:"jurisdiction"`
	TotalDisturbedAcres float64           `json:"total_disturbed_acres" yaml:"total_disturbed_acres"`
	PredominantSoil     SoilType          `json:"predominant_soil" yaml:"predominant_soil"`
	PredominantSlope    SlopeType         `json:"predominant_slope" yaml:"predominant_slope"`
	AverageSlopePercent float64           `json:"average_slope_percent" yaml:"average_slope_percent"`
	DrainageFeatures    []DrainageFeature `json:"drainage_features,omitempty" yaml:"drainage_features,omitempty"`
	Phases              []Phase           `json:"phases,omitempty" yaml:"phases,omitempty"`
	Metadata            map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// SourceFile is set by Load and used in validation messages.
	SourceFile string `json:"-" yaml:"-"`
}
