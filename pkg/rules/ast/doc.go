// Package ast defines the in-memory representation of erosion-control rule sets.
//
// A rule set is an ordered list of rules. Each rule pairs a condition tree with
// an action that describes one erosion-control practice and the pay item it
// produces. Condition trees are a tagged variant: a leaf compares one fact
// field against a literal, and the composite kinds (and, or, not) combine
// children with boolean logic.
//
// Rule sets are built by the parser package and are immutable once loaded.
// Callers that need a different rule set replace it wholesale.
package ast
