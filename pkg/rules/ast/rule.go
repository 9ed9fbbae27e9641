package ast

// DefaultPriority is assigned to rules that do not declare a priority.
const DefaultPriority = 100

// Rule is a single erosion-control rule: when Conditions hold against the
// project facts, Action describes the practice and pay item to emit.
type Rule struct {
	ID         string
	Name       string
	Source     string     // Free-form citation text, e.g. "EPA NPDES CGP"
	Priority   int        // Lower values are evaluated first
	Conditions *Condition // nil means the rule always fires
	Action     Action
	Notes      string
	Citation   *SourceRef // Optional document reference declared by the rule author
	Location   Location
}

// SourceRef points at a specific page of a reference document.
type SourceRef struct {
	DocID   string `json:"doc_id" yaml:"doc_id"`
	Page    int    `json:"page,omitempty" yaml:"page,omitempty"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// Action describes the practice and pay item a fired rule produces.
type Action struct {
	PracticeType       PracticeType
	IsTemporary        bool
	QuantityFormula    string
	Unit               string
	LocationTemplate   string
	Justification      string
	PayItemNumber      string
	PayItemDescription string
	EstimatedUnitCost  *float64
}

// PracticeRef is the identifier that links a pay item to its practice.
func (r *Rule) PracticeRef() string {
	return string(r.Action.PracticeType) + "_" + r.ID
}
