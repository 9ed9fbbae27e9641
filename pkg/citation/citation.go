package citation

import (
	"context"
	"fmt"
	"strings"
)

const (
	// DefaultPrefix is the agency prefix required on document ids.
	DefaultPrefix = "INDOT"

	// DefaultTopK is the number of matches requested from a retriever.
	DefaultTopK = 3

	labelExcerptLength = 80
)

// Citation is a retrieved or declared reference to a document page.
type Citation struct {
	DocID   string  `json:"doc_id" yaml:"doc_id"`
	Page    int     `json:"page,omitempty" yaml:"page,omitempty"`
	Excerpt string  `json:"excerpt" yaml:"excerpt"`
	Score   float64 `json:"score" yaml:"score"`
}

// Label renders the citation as [PREFIX:doc p.N "excerpt"], with the excerpt
// trimmed to 80 characters.
func (c Citation) Label(prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(prefix)
	sb.WriteString(":")
	sb.WriteString(c.DocID)
	if c.Page > 0 {
		fmt.Fprintf(&sb, " p.%d", c.Page)
	}
	if excerpt := Truncate(c.Excerpt, labelExcerptLength); excerpt != "" {
		fmt.Fprintf(&sb, " %q", excerpt)
	}
	sb.WriteString("]")
	return sb.String()
}

// Truncate returns at most n runes of s with surrounding space trimmed.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return strings.TrimSpace(string(r))
}

// Retriever finds reference passages relevant to a query.
type Retriever interface {
	// Retrieve returns up to topK matches, best first. Matches with no
	// relevance are omitted.
	Retrieve(ctx context.Context, query string, topK int) ([]Citation, error)
}

// Policy decides which document ids are acceptable citations.
type Policy struct {
	// RequiredPrefix must start every accepted document id.
	RequiredPrefix string

	// AllowAnySource accepts document ids without the prefix.
	AllowAnySource bool
}

// DefaultPolicy requires INDOT documents.
func DefaultPolicy() Policy {
	return Policy{RequiredPrefix: DefaultPrefix}
}

// Accepts reports whether docID may be cited.
func (p Policy) Accepts(docID string) bool {
	if docID == "" {
		return false
	}
	if p.AllowAnySource {
		return true
	}
	return strings.HasPrefix(docID, p.prefix())
}

// Placeholder is the label used when no acceptable citation exists.
func (p Policy) Placeholder() string {
	return fmt.Sprintf("No %s citation available (placeholder)", p.prefix())
}

func (p Policy) prefix() string {
	if p.RequiredPrefix == "" {
		return DefaultPrefix
	}
	return p.RequiredPrefix
}
