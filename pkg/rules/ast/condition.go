package ast

import (
	"fmt"
	"strings"
)

// ConditionKind tags the variant held by a Condition.
type ConditionKind string

const (
	KindLeaf ConditionKind = "leaf" // field/operator/value comparison
	KindAnd  ConditionKind = "and"  // all children must hold
	KindOr   ConditionKind = "or"   // at least one child must hold
	KindNot  ConditionKind = "not"  // negates its single child
)

// Operator is a leaf comparison operator.
type Operator string

const (
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "ne"
	OpGreater      Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpLess         Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpIn           Operator = "in"
	OpContains     Operator = "contains"
	OpBetween      Operator = "between"
	OpExists       Operator = "exists"
	OpMissing      Operator = "missing"
)

var knownOperators = map[Operator]bool{
	OpEqual:        true,
	OpNotEqual:     true,
	OpGreater:      true,
	OpGreaterEqual: true,
	OpLess:         true,
	OpLessEqual:    true,
	OpIn:           true,
	OpContains:     true,
	OpBetween:      true,
	OpExists:       true,
	OpMissing:      true,
}

// Operators returns the supported operators in a stable order.
func Operators() []Operator {
	return []Operator{
		OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual,
		OpIn, OpContains, OpBetween, OpExists, OpMissing,
	}
}

// IsValid reports whether op is a supported operator.
func (op Operator) IsValid() bool {
	return knownOperators[op]
}

// IsUnary reports whether the operator ignores its value operand.
func (op Operator) IsUnary() bool {
	return op == OpExists || op == OpMissing
}

// Condition is a node in a rule's condition tree.
//
// For KindLeaf, Field, Operator and Value are set and Children is empty.
// For the composite kinds, Children holds the operands; KindNot must have
// exactly one child.
type Condition struct {
	Kind     ConditionKind
	Field    string
	Operator Operator
	Value    any
	Children []*Condition
	Location Location
}

// Leaf creates a field comparison.
func Leaf(field string, op Operator, value any) *Condition {
	return &Condition{Kind: KindLeaf, Field: field, Operator: op, Value: value}
}

// And creates a conjunction. An empty conjunction is true.
func And(children ...*Condition) *Condition {
	return &Condition{Kind: KindAnd, Children: children}
}

// Or creates a disjunction. An empty disjunction is false.
func Or(children ...*Condition) *Condition {
	return &Condition{Kind: KindOr, Children: children}
}

// Not negates a single condition.
func Not(child *Condition) *Condition {
	return &Condition{Kind: KindNot, Children: []*Condition{child}}
}

// IsComposite reports whether the node combines child conditions.
func (c *Condition) IsComposite() bool {
	return c.Kind == KindAnd || c.Kind == KindOr || c.Kind == KindNot
}

// Fields returns every field referenced by the tree, in first-seen order.
func (c *Condition) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	c.Walk(func(n *Condition) {
		if n.Kind == KindLeaf && !seen[n.Field] {
			seen[n.Field] = true
			out = append(out, n.Field)
		}
	})
	return out
}

// Walk visits the node and its descendants depth-first.
func (c *Condition) Walk(fn func(*Condition)) {
	if c == nil {
		return
	}
	fn(c)
	for _, child := range c.Children {
		child.Walk(fn)
	}
}

// String renders the tree in a compact prefix form, e.g.
// and(total_disturbed_acres gt 0, not(predominant_slope eq flat)).
func (c *Condition) String() string {
	if c == nil {
		return "true"
	}
	switch c.Kind {
	case KindLeaf:
		if c.Operator.IsUnary() {
			return fmt.Sprintf("%s %s", c.Field, c.Operator)
		}
		return fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
	case KindAnd, KindOr, KindNot:
		parts := make([]string, len(c.Children))
		for i, child := range c.Children {
			parts[i] = child.String()
		}
		return fmt.Sprintf("%s(%s)", c.Kind, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("<%s>", c.Kind)
	}
}
