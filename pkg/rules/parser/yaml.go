package parser

import (
	"gopkg.in/yaml.v3"
)

// yamlDocument is the top-level shape of a rule file.
type yamlDocument struct {
	Version string      `yaml:"version"`
	Rules   []yaml.Node `yaml:"rules"`
}

// yamlRule is the intermediate form of one rule before AST construction.
type yamlRule struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Source     string         `yaml:"source"`
	Priority   *int           `yaml:"priority"` // Pointer to distinguish unset vs 0
	Conditions yaml.Node      `yaml:"conditions"`
	Action     *yamlAction    `yaml:"action"`
	Notes      string         `yaml:"notes"`
	Citation   *yamlSourceRef `yaml:"citation"`
}

type yamlAction struct {
	PracticeType       string   `yaml:"practice_type"`
	IsTemporary        *bool    `yaml:"is_temporary"`
	QuantityFormula    string   `yaml:"quantity_formula"`
	Unit               string   `yaml:"unit"`
	LocationTemplate   string   `yaml:"location_template"`
	Justification      string   `yaml:"justification"`
	PayItemNumber      string   `yaml:"pay_item_number"`
	PayItemDescription string   `yaml:"pay_item_description"`
	EstimatedUnitCost  *float64 `yaml:"estimated_unit_cost"`
}

type yamlSourceRef struct {
	DocID   string `yaml:"doc_id"`
	Page    int    `yaml:"page"`
	Section string `yaml:"section"`
	Excerpt string `yaml:"excerpt"`
}

// decodeDocument parses raw bytes into the intermediate document. A bare
// top-level list is accepted as the rules list.
func decodeDocument(data []byte) (*yamlDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	doc := &yamlDocument{}
	if len(root.Content) == 0 {
		return doc, nil
	}

	top := root.Content[0]
	if top.Kind == yaml.SequenceNode {
		for _, item := range top.Content {
			doc.Rules = append(doc.Rules, *item)
		}
		return doc, nil
	}

	if err := top.Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
