package ast

import "fmt"

// PracticeType is the closed set of erosion-control practices a rule may emit.
type PracticeType string

const (
	PracticeSiltFence             PracticeType = "silt_fence"
	PracticeInletProtection       PracticeType = "inlet_protection"
	PracticeSedimentTrap          PracticeType = "sediment_trap"
	PracticeTemporarySeeding      PracticeType = "temporary_seeding"
	PracticeMulch                 PracticeType = "mulch"
	PracticeErosionControlBlanket PracticeType = "erosion_control_blanket"
	PracticeConstructionEntrance  PracticeType = "construction_entrance"
	PracticeDustControl           PracticeType = "dust_control"
	PracticePermanentSeeding      PracticeType = "permanent_seeding"
	PracticeSodding               PracticeType = "sodding"
	PracticeRiprap                PracticeType = "riprap"
	PracticeRetainingWall         PracticeType = "retaining_wall"
	PracticeBioswale              PracticeType = "bioswale"
	PracticeDetentionBasin        PracticeType = "detention_basin"
)

var practiceTypes = []PracticeType{
	PracticeSiltFence,
	PracticeInletProtection,
	PracticeSedimentTrap,
	PracticeTemporarySeeding,
	PracticeMulch,
	PracticeErosionControlBlanket,
	PracticeConstructionEntrance,
	PracticeDustControl,
	PracticePermanentSeeding,
	PracticeSodding,
	PracticeRiprap,
	PracticeRetainingWall,
	PracticeBioswale,
	PracticeDetentionBasin,
}

// PracticeTypes returns every known practice type in declaration order.
func PracticeTypes() []PracticeType {
	out := make([]PracticeType, len(practiceTypes))
	copy(out, practiceTypes)
	return out
}

// IsValid reports whether p is a member of the closed practice set.
func (p PracticeType) IsValid() bool {
	for _, known := range practiceTypes {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePracticeType converts a raw string into a PracticeType.
func ParsePracticeType(s string) (PracticeType, error) {
	p := PracticeType(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown practice type %q", s)
	}
	return p, nil
}
