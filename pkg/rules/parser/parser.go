package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"ecagent-hq/ecagent/pkg/rules/ast"
	ruleErrors "ecagent-hq/ecagent/pkg/rules/errors"
)

// Parser parses rule documents into rule sets.
type Parser struct {
	maxFileSize int64 // Maximum document size in bytes (default: 4MB)
	maxDepth    int   // Maximum condition nesting depth (default: 16)
}

// NewParser creates a parser with default limits.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 4 * 1024 * 1024,
		maxDepth:    16,
	}
}

// WithMaxFileSize sets the maximum document size.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum condition nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Parse reads and parses the rule file at path.
func (p *Parser) Parse(path string) (*ast.RuleSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ruleErrors.NewValidationError(path, "", "", fmt.Sprintf("cannot access rule file: %v", err))
	}
	if info.Size() > p.maxFileSize {
		return nil, ruleErrors.NewValidationError(path, "", "",
			fmt.Sprintf("file size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ruleErrors.NewValidationError(path, "", "", fmt.Sprintf("cannot read rule file: %v", err))
	}
	return p.ParseBytes(data, path)
}

// ParseBytes parses a rule document held in memory. sourcePath is used for
// error messages and recorded on the resulting rule set.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.RuleSet, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, ruleErrors.NewValidationError(sourcePath, "", "",
			fmt.Sprintf("document size %d exceeds maximum %d bytes", len(data), p.maxFileSize))
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, ruleErrors.NewValidationError(sourcePath, "", "", fmt.Sprintf("YAML parsing failed: %v", err))
	}

	b := newBuilder(sourcePath, p.maxDepth)
	rules, err := b.buildRules(doc)
	if err != nil {
		return nil, err
	}

	return ast.NewRuleSet(rules, sourcePath, HashDocument(data)), nil
}

// HashDocument returns the hex sha256 of a rule document.
func HashDocument(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ParseFile parses a rule file with default limits.
func ParseFile(path string) (*ast.RuleSet, error) {
	return NewParser().Parse(path)
}
