// Package engine evaluates erosion-control rule sets against project facts.
//
// Processing walks the rules in priority order. For every rule whose condition
// tree holds, the engine computes a quantity from the rule's formula and emits
// one Practice and one PayItem that both carry the rule id and source. The
// result is a ProjectOutput with temporary and permanent practices, pay items
// and a cost summary.
//
// # Failure handling
//
// Problems with the rule set itself (an unsupported operator, a practice type
// outside the closed set) abort the run with a ConfigurationError. Problems
// with a single quantity (unknown identifier, division by zero, a formula that
// does not parse) do not: the quantity falls back to EngineConfig.DefaultQuantity,
// a warning is logged, and an Annotation is attached to the practice, the pay
// item and the summary.
//
// # Determinism
//
// Given the same facts and rules, Process returns the same output except for
// the timestamp, which comes from EngineConfig.Clock.
//
// # Usage
//
//	rules, _ := parser.Default()
//	eng, _ := engine.New(engine.DefaultEngineConfig(), slog.Default())
//	out, err := eng.Process(ctx, project.Facts(), rules)
package engine
