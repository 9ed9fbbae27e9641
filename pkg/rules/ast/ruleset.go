package ast

import "sort"

// RuleSet is an ordered, immutable collection of rules.
type RuleSet struct {
	Rules      []*Rule
	SourceFile string // Empty for the built-in defaults
	Hash       string // sha256 of the source document
}

// NewRuleSet returns a rule set ordered by ascending priority. Rules with
// equal priority keep their relative order.
func NewRuleSet(rules []*Rule, source, hash string) *RuleSet {
	sorted := make([]*Rule, len(rules))
	copy(sorted, rules)
	SortByPriority(sorted)
	return &RuleSet{Rules: sorted, SourceFile: source, Hash: hash}
}

// SortByPriority stable-sorts rules in place, lowest priority value first.
func SortByPriority(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
}

// Len returns the number of rules, treating a nil set as empty.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rules)
}

// Get returns the rule with the given id.
func (rs *RuleSet) Get(id string) (*Rule, bool) {
	if rs == nil {
		return nil, false
	}
	for _, r := range rs.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// IDs returns rule ids in evaluation order.
func (rs *RuleSet) IDs() []string {
	if rs == nil {
		return nil
	}
	ids := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		ids[i] = r.ID
	}
	return ids
}
