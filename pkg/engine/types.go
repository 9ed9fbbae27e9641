package engine

import (
	"ecagent-hq/ecagent/pkg/rules/ast"
)

// AnnotationKind classifies a non-fatal problem attached to the output.
type AnnotationKind string

const (
	AnnotationQuantity AnnotationKind = "quantity" // formula fell back to the default quantity
	AnnotationCitation AnnotationKind = "citation" // no acceptable citation was found
	AnnotationPayItem  AnnotationKind = "pay_item" // pay item did not match the catalog
	AnnotationPrice    AnnotationKind = "price"    // unit price lookup failed
)

// Annotation records a non-fatal problem with one recommendation.
type Annotation struct {
	RuleID  string         `json:"rule_id" yaml:"rule_id"`
	Kind    AnnotationKind `json:"kind" yaml:"kind"`
	Message string         `json:"message" yaml:"message"`
}

// CitationStatus says where a practice's citation came from.
type CitationStatus string

const (
	CitationDeclared    CitationStatus = "declared"    // declared by the rule author
	CitationRetrieved   CitationStatus = "retrieved"   // found in the reference corpus
	CitationPlaceholder CitationStatus = "placeholder" // nothing acceptable was found
)

// CitationRef is the citation bound to a practice.
type CitationRef struct {
	Status  CitationStatus `json:"status" yaml:"status"`
	DocID   string         `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	Page    int            `json:"page,omitempty" yaml:"page,omitempty"`
	Excerpt string         `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Score   float64        `json:"score,omitempty" yaml:"score,omitempty"`
	Label   string         `json:"label" yaml:"label"`
}

// Practice is an erosion-control practice recommended by one rule.
type Practice struct {
	PracticeType  ast.PracticeType `json:"practice_type" yaml:"practice_type"`
	IsTemporary   bool             `json:"is_temporary" yaml:"is_temporary"`
	Quantity      float64          `json:"quantity" yaml:"quantity"`
	Unit          string           `json:"unit" yaml:"unit"`
	Location      string           `json:"location" yaml:"location"`
	RuleID        string           `json:"rule_id" yaml:"rule_id"`
	RuleSource    string           `json:"rule_source" yaml:"rule_source"`
	Justification string           `json:"justification" yaml:"justification"`
	Notes         string           `json:"notes,omitempty" yaml:"notes,omitempty"`
	Annotations   []Annotation     `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Citation      *CitationRef     `json:"citation,omitempty" yaml:"citation,omitempty"`
}

// PayItem is the construction pay item produced alongside a practice.
type PayItem struct {
	ItemNumber        string       `json:"item_number" yaml:"item_number"`
	Description       string       `json:"description" yaml:"description"`
	Quantity          float64      `json:"quantity" yaml:"quantity"`
	Unit              string       `json:"unit" yaml:"unit"`
	EstimatedUnitCost *float64     `json:"estimated_unit_cost" yaml:"estimated_unit_cost"`
	PriceSource       string       `json:"price_source,omitempty" yaml:"price_source,omitempty"`
	ECPracticeRef     string       `json:"ec_practice_ref" yaml:"ec_practice_ref"`
	RuleID            string       `json:"rule_id" yaml:"rule_id"`
	RuleSource        string       `json:"rule_source" yaml:"rule_source"`
	Annotations       []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// ExtendedCost returns quantity times unit cost, or 0 when no cost is known.
func (p *PayItem) ExtendedCost() float64 {
	if p.EstimatedUnitCost == nil {
		return 0
	}
	return *p.EstimatedUnitCost * p.Quantity
}

// Summary aggregates a run.
type Summary struct {
	TotalTemporaryPractices int          `json:"total_temporary_practices" yaml:"total_temporary_practices"`
	TotalPermanentPractices int          `json:"total_permanent_practices" yaml:"total_permanent_practices"`
	TotalPayItems           int          `json:"total_pay_items" yaml:"total_pay_items"`
	TotalEstimatedCost      float64      `json:"total_estimated_cost" yaml:"total_estimated_cost"`
	RulesEvaluated          int          `json:"rules_evaluated" yaml:"rules_evaluated"`
	RulesFired              int          `json:"rules_fired" yaml:"rules_fired"`
	UnverifiedCitations     int          `json:"unverified_citations" yaml:"unverified_citations"`
	Annotations             []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// ProjectOutput is the result of processing one project.
type ProjectOutput struct {
	ProjectName        string     `json:"project_name" yaml:"project_name"`
	Timestamp          string     `json:"timestamp" yaml:"timestamp"`
	TemporaryPractices []Practice `json:"temporary_practices" yaml:"temporary_practices"`
	PermanentPractices []Practice `json:"permanent_practices" yaml:"permanent_practices"`
	PayItems           []PayItem  `json:"pay_items" yaml:"pay_items"`
	Summary            Summary    `json:"summary" yaml:"summary"`
}

// Practices returns temporary then permanent practices as pointers into the
// output, in emission order within each group.
func (o *ProjectOutput) Practices() []*Practice {
	out := make([]*Practice, 0, len(o.TemporaryPractices)+len(o.PermanentPractices))
	for i := range o.TemporaryPractices {
		out = append(out, &o.TemporaryPractices[i])
	}
	for i := range o.PermanentPractices {
		out = append(out, &o.PermanentPractices[i])
	}
	return out
}

// Annotate attaches an annotation to every practice and pay item produced by
// ruleID and to the summary.
func (o *ProjectOutput) Annotate(a Annotation) {
	for _, p := range o.Practices() {
		if p.RuleID == a.RuleID {
			p.Annotations = append(p.Annotations, a)
		}
	}
	for i := range o.PayItems {
		if o.PayItems[i].RuleID == a.RuleID {
			o.PayItems[i].Annotations = append(o.PayItems[i].Annotations, a)
		}
	}
	o.Summary.Annotations = append(o.Summary.Annotations, a)
}

// RecomputeTotals refreshes the counts and total cost in the summary.
func (o *ProjectOutput) RecomputeTotals() {
	var total float64
	for i := range o.PayItems {
		total += o.PayItems[i].ExtendedCost()
	}
	o.Summary.TotalTemporaryPractices = len(o.TemporaryPractices)
	o.Summary.TotalPermanentPractices = len(o.PermanentPractices)
	o.Summary.TotalPayItems = len(o.PayItems)
	o.Summary.TotalEstimatedCost = Round2(total)
}
