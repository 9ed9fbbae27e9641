// Package errors defines the error types reported while loading and evaluating
// erosion-control rule sets.
//
// Two kinds of failure are distinguished:
//
//   - ValidationError: a rule document is malformed (missing or mistyped field,
//     duplicate id, bad formula limits). Reported at load time.
//   - ConfigurationError: a rule is well-formed but asks for something the
//     engine cannot do (unknown practice type, unsupported operator, a "not"
//     with the wrong number of children). Fatal for the run.
//
// Loaders accumulate several problems in an ErrorList so authors can fix a
// document in one pass. ErrorList supports errors.Is and errors.As through its
// Unwrap method.
package errors
