package payitems

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"ecagent-hq/ecagent/pkg/engine"
)

// VerifyMarker flags a pay item that needs manual verification.
const VerifyMarker = "VERIFY PAY ITEM NUMBER"

// UnknownSource is the source document id used when none is recorded.
const UnknownSource = "UNKNOWN"

// ErrInvalidCatalog is returned for catalog files that cannot be used.
var ErrInvalidCatalog = errors.New("invalid pay item catalog")

// Item is one catalog entry.
type Item struct {
	Number      string `yaml:"pay_item_number" json:"pay_item_number"`
	Description string `yaml:"description" json:"description"`
	Unit        string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Notes       string `yaml:"notes,omitempty" json:"notes,omitempty"`
	SourceDocID string `yaml:"source_doc_id,omitempty" json:"source_doc_id,omitempty"`
}

// Match is a pay item resolved for a practice type.
type Match struct {
	Practice string `json:"practice"`
	Item
	Verified bool `json:"verified"`
}

type document struct {
	Catalog     []Item            `yaml:"catalog"`
	PracticeMap map[string][]Item `yaml:"practice_map"`
}

// Catalog is a loaded pay-item catalog. It is read-only after loading.
type Catalog struct {
	items       map[string]Item
	practiceMap map[string][]Item
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pay item catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{
		items:       make(map[string]Item, len(doc.Catalog)),
		practiceMap: make(map[string][]Item, len(doc.PracticeMap)),
	}
	for i, item := range doc.Catalog {
		item.Number = strings.TrimSpace(item.Number)
		if item.Number == "" {
			return nil, fmt.Errorf("%w: catalog entry %d has no pay_item_number", ErrInvalidCatalog, i)
		}
		if item.SourceDocID == "" {
			item.SourceDocID = UnknownSource
		}
		c.items[item.Number] = item
	}
	for practice, refs := range doc.PracticeMap {
		for i, ref := range refs {
			if strings.TrimSpace(ref.Number) == "" {
				return nil, fmt.Errorf("%w: practice_map %s entry %d has no pay_item_number", ErrInvalidCatalog, practice, i)
			}
		}
		c.practiceMap[practice] = refs
	}
	return c, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Lookup returns the catalog entry for a pay item number.
func (c *Catalog) Lookup(number string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	item, ok := c.items[strings.TrimSpace(number)]
	return item, ok
}

// Numbers returns all catalog pay item numbers in sorted order.
func (c *Catalog) Numbers() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.items))
	for n := range c.items {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ForPractices resolves the mapped pay items for each practice type, in the
// order given. Mapped numbers missing from the catalog are returned
// unverified, with VerifyMarker appended to their notes.
func (c *Catalog) ForPractices(practices []string) []Match {
	if c == nil {
		return nil
	}
	var out []Match
	for _, practice := range practices {
		for _, ref := range c.practiceMap[practice] {
			number := strings.TrimSpace(ref.Number)
			if item, ok := c.items[number]; ok {
				item.Notes = joinNotes(ref.Notes, item.Notes)
				out = append(out, Match{Practice: practice, Item: item, Verified: true})
				continue
			}

			item := ref
			item.Number = number
			if item.Description == "" {
				item.Description = VerifyMarker
			}
			if item.SourceDocID == "" {
				item.SourceDocID = UnknownSource
			}
			item.Notes = joinNotes(ref.Notes, VerifyMarker)
			out = append(out, Match{Practice: practice, Item: item})
		}
	}
	return out
}

// Verify checks each pay item in out against the catalog. Unknown numbers and
// unit mismatches are annotated on the pay item and the summary, and missing
// descriptions are filled in from the catalog. It returns the number of
// annotations added.
func (c *Catalog) Verify(out *engine.ProjectOutput) int {
	if c == nil || out == nil {
		return 0
	}

	added := 0
	for i := range out.PayItems {
		p := &out.PayItems[i]
		if p.ItemNumber == "" {
			continue
		}

		var message string
		item, ok := c.Lookup(p.ItemNumber)
		switch {
		case !ok:
			message = fmt.Sprintf("%s: %s is not in the pay item catalog", VerifyMarker, p.ItemNumber)
		case item.Unit != "" && p.Unit != "" && !strings.EqualFold(item.Unit, p.Unit):
			message = fmt.Sprintf("%s: %s is measured in %s in the catalog, rule emits %s", VerifyMarker, p.ItemNumber, item.Unit, p.Unit)
		}
		if ok && p.Description == "" {
			p.Description = item.Description
		}
		if message == "" {
			continue
		}

		a := engine.Annotation{RuleID: p.RuleID, Kind: engine.AnnotationPayItem, Message: message}
		p.Annotations = append(p.Annotations, a)
		out.Summary.Annotations = append(out.Summary.Annotations, a)
		added++
	}
	return added
}

func joinNotes(a, b string) string {
	return strings.TrimSpace(a + " " + b)
}
