package parser

import (
	_ "embed"
	"fmt"

	"ecagent-hq/ecagent/pkg/rules/ast"
)

// DefaultSource is the source name recorded for the built-in rule set.
const DefaultSource = "<defaults>"

//go:embed defaults.yaml
var defaultRules []byte

// Default returns the built-in rule set. The embedded document is parsed on
// every call so callers never share mutable state.
func Default() (*ast.RuleSet, error) {
	rs, err := NewParser().ParseBytes(defaultRules, DefaultSource)
	if err != nil {
		return nil, fmt.Errorf("built-in rules are invalid: %w", err)
	}
	rs.SourceFile = ""
	return rs, nil
}

// DefaultDocument returns a copy of the embedded default rule document.
func DefaultDocument() []byte {
	out := make([]byte, len(defaultRules))
	copy(out, defaultRules)
	return out
}
