package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"ecagent-hq/ecagent/pkg/rules/ast"
	ruleErrors "ecagent-hq/ecagent/pkg/rules/errors"
)

// builder converts intermediate YAML structures into AST nodes, collecting
// every problem it finds instead of stopping at the first.
type builder struct {
	sourcePath string
	maxDepth   int
	errors     *ruleErrors.ErrorList
	seenIDs    map[string]ast.Location
}

func newBuilder(sourcePath string, maxDepth int) *builder {
	return &builder{
		sourcePath: sourcePath,
		maxDepth:   maxDepth,
		errors:     ruleErrors.NewErrorList(),
		seenIDs:    make(map[string]ast.Location),
	}
}

// buildRules converts every rule node of the document.
func (b *builder) buildRules(doc *yamlDocument) ([]*ast.Rule, error) {
	rules := make([]*ast.Rule, 0, len(doc.Rules))
	for i := range doc.Rules {
		node := &doc.Rules[i]
		rule := b.buildRule(node, i)
		if rule != nil {
			rules = append(rules, rule)
		}
	}
	if b.errors.HasErrors() {
		return nil, b.errors
	}
	return rules, nil
}

func (b *builder) buildRule(node *yaml.Node, index int) *ast.Rule {
	loc := ast.Location{File: b.sourcePath, Line: node.Line, Index: index}

	if node.Kind != yaml.MappingNode {
		b.errors.AddValidation(b.sourcePath, "", fmt.Sprintf("rules[%d]", index), "rule must be a mapping")
		return nil
	}

	var yr yamlRule
	if err := node.Decode(&yr); err != nil {
		b.errors.AddValidation(b.sourcePath, "", fmt.Sprintf("rules[%d]", index), err.Error())
		return nil
	}

	ruleID := strings.TrimSpace(yr.ID)
	if ruleID == "" {
		b.errors.AddValidation(b.sourcePath, "", fmt.Sprintf("rules[%d].id", index), "is required")
		return nil
	}
	if prev, dup := b.seenIDs[ruleID]; dup {
		b.errors.AddValidation(b.sourcePath, ruleID, "id", fmt.Sprintf("duplicate rule id (first defined at %s)", prev))
		return nil
	}
	b.seenIDs[ruleID] = loc

	rule := &ast.Rule{
		ID:       ruleID,
		Name:     yr.Name,
		Source:   yr.Source,
		Priority: ast.DefaultPriority,
		Notes:    yr.Notes,
		Location: loc,
	}
	if yr.Priority != nil {
		rule.Priority = *yr.Priority
	}

	b.require(ruleID, "name", yr.Name)
	b.require(ruleID, "source", yr.Source)

	if !isEmptyNode(&yr.Conditions) {
		rule.Conditions = b.buildCondition(ruleID, &yr.Conditions, "conditions", 1)
	}

	if yr.Action == nil {
		b.errors.AddValidation(b.sourcePath, ruleID, "action", "is required")
	} else {
		rule.Action = b.buildAction(ruleID, yr.Action)
	}

	if yr.Citation != nil {
		if yr.Citation.DocID == "" {
			b.errors.AddValidation(b.sourcePath, ruleID, "citation.doc_id", "is required when citation is present")
		}
		rule.Citation = &ast.SourceRef{
			DocID:   yr.Citation.DocID,
			Page:    yr.Citation.Page,
			Section: yr.Citation.Section,
			Excerpt: yr.Citation.Excerpt,
		}
	}

	return rule
}

func (b *builder) buildAction(ruleID string, ya *yamlAction) ast.Action {
	action := ast.Action{
		QuantityFormula:    strings.TrimSpace(ya.QuantityFormula),
		Unit:               ya.Unit,
		LocationTemplate:   ya.LocationTemplate,
		Justification:      ya.Justification,
		PayItemNumber:      ya.PayItemNumber,
		PayItemDescription: ya.PayItemDescription,
		EstimatedUnitCost:  ya.EstimatedUnitCost,
	}

	if ya.PracticeType == "" {
		b.errors.AddValidation(b.sourcePath, ruleID, "action.practice_type", "is required")
	} else if pt, err := ast.ParsePracticeType(ya.PracticeType); err != nil {
		cfgErr := ruleErrors.NewConfigurationError(ruleID,
			fmt.Sprintf("practice type %q is not one of %s", ya.PracticeType, practiceTypeList()),
			ruleErrors.ErrUnknownPracticeType)
		b.errors.Add(cfgErr.WithFile(b.sourcePath))
	} else {
		action.PracticeType = pt
	}

	if ya.IsTemporary == nil {
		b.errors.AddValidation(b.sourcePath, ruleID, "action.is_temporary", "is required")
	} else {
		action.IsTemporary = *ya.IsTemporary
	}

	b.require(ruleID, "action.quantity_formula", action.QuantityFormula)
	b.require(ruleID, "action.unit", action.Unit)
	b.require(ruleID, "action.location_template", action.LocationTemplate)
	b.require(ruleID, "action.justification", action.Justification)
	b.require(ruleID, "action.pay_item_number", action.PayItemNumber)
	b.require(ruleID, "action.pay_item_description", action.PayItemDescription)

	if ya.EstimatedUnitCost != nil && *ya.EstimatedUnitCost < 0 {
		b.errors.AddValidation(b.sourcePath, ruleID, "action.estimated_unit_cost", "must not be negative")
	}

	return action
}

// buildCondition converts a condition node. Sequences are implicit "and";
// mappings are either a single composite key or a leaf.
func (b *builder) buildCondition(ruleID string, node *yaml.Node, path string, depth int) *ast.Condition {
	if depth > b.maxDepth {
		b.errors.AddValidation(b.sourcePath, ruleID, path,
			fmt.Sprintf("condition nesting exceeds maximum depth %d", b.maxDepth))
		return nil
	}

	loc := ast.Location{File: b.sourcePath, Line: node.Line}

	switch node.Kind {
	case yaml.SequenceNode:
		cond := &ast.Condition{Kind: ast.KindAnd, Location: loc}
		cond.Children = b.buildChildren(ruleID, node, path, depth)
		return cond

	case yaml.MappingNode:
		keys := mappingKeys(node)
		if len(keys) == 1 {
			switch keys[0] {
			case "and", "or":
				value := node.Content[1]
				if value.Kind != yaml.SequenceNode {
					b.errors.AddValidation(b.sourcePath, ruleID, path+"."+keys[0], "must be a list of conditions")
					return nil
				}
				kind := ast.KindAnd
				if keys[0] == "or" {
					kind = ast.KindOr
				}
				return &ast.Condition{
					Kind:     kind,
					Children: b.buildChildren(ruleID, value, path+"."+keys[0], depth),
					Location: loc,
				}
			case "not":
				return b.buildNot(ruleID, node.Content[1], path+".not", depth, loc)
			}
		}
		return b.buildLeaf(ruleID, node, path, loc)

	default:
		b.errors.AddValidation(b.sourcePath, ruleID, path, "condition must be a mapping or a list")
		return nil
	}
}

func (b *builder) buildChildren(ruleID string, node *yaml.Node, path string, depth int) []*ast.Condition {
	children := make([]*ast.Condition, 0, len(node.Content))
	for i, item := range node.Content {
		child := b.buildCondition(ruleID, item, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if child != nil {
			children = append(children, child)
		}
	}
	return children
}

func (b *builder) buildNot(ruleID string, value *yaml.Node, path string, depth int, loc ast.Location) *ast.Condition {
	operand := value
	if value.Kind == yaml.SequenceNode {
		if len(value.Content) != 1 {
			cfgErr := ruleErrors.NewConfigurationError(ruleID,
				fmt.Sprintf("%s: not requires exactly one condition, got %d", path, len(value.Content)),
				ruleErrors.ErrMalformedCondition)
			b.errors.Add(cfgErr.WithFile(b.sourcePath))
			return nil
		}
		operand = value.Content[0]
	}

	child := b.buildCondition(ruleID, operand, path, depth+1)
	if child == nil {
		return nil
	}
	return &ast.Condition{Kind: ast.KindNot, Children: []*ast.Condition{child}, Location: loc}
}

func (b *builder) buildLeaf(ruleID string, node *yaml.Node, path string, loc ast.Location) *ast.Condition {
	var field, operator string
	var valueNode *yaml.Node

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		switch key {
		case "field":
			field = val.Value
		case "operator":
			operator = val.Value
		case "value":
			valueNode = val
		default:
			b.errors.AddValidation(b.sourcePath, ruleID, path+"."+key,
				"unknown condition key (expected field, operator, value, or one of and/or/not)")
			return nil
		}
	}

	if field == "" {
		b.errors.AddValidation(b.sourcePath, ruleID, path+".field", "is required")
		return nil
	}
	if operator == "" {
		b.errors.AddValidation(b.sourcePath, ruleID, path+".operator", "is required")
		return nil
	}

	op := ast.Operator(operator)
	if !op.IsValid() {
		cfgErr := ruleErrors.NewConfigurationError(ruleID,
			fmt.Sprintf("%s: unsupported operator %q", path, operator),
			ruleErrors.ErrUnsupportedOperator)
		b.errors.Add(cfgErr.WithFile(b.sourcePath))
		return nil
	}

	var value any
	if valueNode != nil {
		if err := valueNode.Decode(&value); err != nil {
			b.errors.AddValidation(b.sourcePath, ruleID, path+".value", err.Error())
			return nil
		}
	} else if !op.IsUnary() {
		b.errors.AddValidation(b.sourcePath, ruleID, path+".value", fmt.Sprintf("is required for operator %q", op))
		return nil
	}

	if !b.checkOperand(ruleID, path, op, value) {
		return nil
	}

	return &ast.Condition{
		Kind:     ast.KindLeaf,
		Field:    field,
		Operator: op,
		Value:    value,
		Location: loc,
	}
}

// checkOperand validates operator-specific value shapes.
func (b *builder) checkOperand(ruleID, path string, op ast.Operator, value any) bool {
	switch op {
	case ast.OpIn:
		if _, ok := value.([]any); !ok {
			b.errors.AddValidation(b.sourcePath, ruleID, path+".value", "operator in requires a list")
			return false
		}
	case ast.OpBetween:
		bounds, ok := value.([]any)
		if !ok || len(bounds) != 2 {
			b.errors.AddValidation(b.sourcePath, ruleID, path+".value", "operator between requires [low, high]")
			return false
		}
		for _, bound := range bounds {
			if !isNumber(bound) {
				b.errors.AddValidation(b.sourcePath, ruleID, path+".value", "between bounds must be numbers")
				return false
			}
		}
	case ast.OpGreater, ast.OpGreaterEqual, ast.OpLess, ast.OpLessEqual:
		if !isNumber(value) {
			b.errors.AddValidation(b.sourcePath, ruleID, path+".value",
				fmt.Sprintf("operator %s requires a number", op))
			return false
		}
	}
	return true
}

func (b *builder) require(ruleID, field, value string) {
	if strings.TrimSpace(value) == "" {
		b.errors.AddValidation(b.sourcePath, ruleID, field, "is required")
	}
}

func mappingKeys(node *yaml.Node) []string {
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

func isEmptyNode(node *yaml.Node) bool {
	if node.Kind == 0 {
		return true
	}
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	default:
		return false
	}
}

func practiceTypeList() string {
	types := ast.PracticeTypes()
	names := make([]string, len(types))
	for i, pt := range types {
		names[i] = string(pt)
	}
	return strings.Join(names, ", ")
}
