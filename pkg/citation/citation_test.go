package citation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ecagent-hq/ecagent/pkg/engine"
	"ecagent-hq/ecagent/pkg/rules/ast"
)

type stubRetriever struct {
	results []Citation
	err     error
	queries []string
	topK    int
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, topK int) ([]Citation, error) {
	s.queries = append(s.queries, query)
	s.topK = topK
	return s.results, s.err
}

func testOutput() *engine.ProjectOutput {
	return &engine.ProjectOutput{
		ProjectName: "Test",
		TemporaryPractices: []engine.Practice{
			{PracticeType: ast.PracticeSiltFence, RuleID: "SILT_FENCE_001", Justification: "Perimeter sediment control"},
		},
		PermanentPractices: []engine.Practice{
			{PracticeType: ast.PracticePermanentSeeding, RuleID: "PERM_SEED_001", Justification: "Final stabilization"},
		},
		PayItems: []engine.PayItem{
			{ItemNumber: "EC-001", RuleID: "SILT_FENCE_001"},
			{ItemNumber: "EC-010", RuleID: "PERM_SEED_001"},
		},
	}
}

func testRules() *ast.RuleSet {
	return ast.NewRuleSet([]*ast.Rule{
		{ID: "SILT_FENCE_001", Name: "Silt Fence for Perimeter"},
		{ID: "PERM_SEED_001", Name: "Permanent Seeding"},
	}, "", "")
}

func TestCitation_Label(t *testing.T) {
	long := strings.Repeat("x", 120)
	tests := []struct {
		name string
		c    Citation
		want string
	}{
		{"with page", Citation{DocID: "INDOT-SS-2024", Page: 12, Excerpt: " Silt fence shall be installed "}, `[INDOT:INDOT-SS-2024 p.12 "Silt fence shall be installed"]`},
		{"no page", Citation{DocID: "INDOT-SS-2024", Excerpt: "text"}, `[INDOT:INDOT-SS-2024 "text"]`},
		{"no excerpt", Citation{DocID: "INDOT-SS-2024", Page: 3}, `[INDOT:INDOT-SS-2024 p.3]`},
		{"truncated", Citation{DocID: "D", Page: 1, Excerpt: long}, `[INDOT:D p.1 "` + long[:80] + `"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Label(""); got != tt.want {
				t.Errorf("Label() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPolicy_Accepts(t *testing.T) {
	strict := DefaultPolicy()
	loose := Policy{RequiredPrefix: "INDOT", AllowAnySource: true}

	tests := []struct {
		docID       string
		strict      bool
		allowAnyway bool
	}{
		{"INDOT-SS-2024", true, true},
		{"INDOT", true, true},
		{"EPA-CGP-2022", false, true},
		{"indot-lower", false, true},
		{"", false, false},
	}
	for _, tt := range tests {
		if got := strict.Accepts(tt.docID); got != tt.strict {
			t.Errorf("strict.Accepts(%q) = %v", tt.docID, got)
		}
		if got := loose.Accepts(tt.docID); got != tt.allowAnyway {
			t.Errorf("loose.Accepts(%q) = %v", tt.docID, got)
		}
	}

	if got := strict.Placeholder(); got != "No INDOT citation available (placeholder)" {
		t.Errorf("Placeholder() = %q", got)
	}
}

// TestBinder_NoAgencyMatch verifies a corpus without an INDOT match yields the placeholder.
func TestBinder_NoAgencyMatch(t *testing.T) {
	retriever := &stubRetriever{results: []Citation{{DocID: "EPA-CGP-2022", Page: 4, Excerpt: "perimeter controls", Score: 0.8}}}
	out, err := NewBinder(nil, retriever, nil).Bind(context.Background(), testOutput(), testRules())
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	for _, p := range out.Practices() {
		if p.Citation == nil || p.Citation.Status != engine.CitationPlaceholder {
			t.Fatalf("practice %s citation = %+v, want placeholder", p.RuleID, p.Citation)
		}
		if p.Citation.Label != "No INDOT citation available (placeholder)" {
			t.Errorf("Label = %q", p.Citation.Label)
		}
		if p.Citation.DocID != "" {
			t.Error("placeholder should not carry a document id")
		}
		if len(p.Annotations) != 1 || p.Annotations[0].Kind != engine.AnnotationCitation {
			t.Errorf("annotations = %+v", p.Annotations)
		}
	}
	if out.Summary.UnverifiedCitations != 2 {
		t.Errorf("UnverifiedCitations = %d, want 2", out.Summary.UnverifiedCitations)
	}
	if len(out.PayItems[0].Annotations) != 1 {
		t.Error("citation annotation missing from pay item")
	}
	if retriever.topK != DefaultTopK {
		t.Errorf("topK = %d, want %d", retriever.topK, DefaultTopK)
	}
	if !strings.HasPrefix(retriever.queries[0], "Silt Fence for Perimeter") {
		t.Errorf("query = %q", retriever.queries[0])
	}
}

func TestBinder_AllowAnySource(t *testing.T) {
	retriever := &stubRetriever{results: []Citation{{DocID: "EPA-CGP-2022", Page: 4, Excerpt: "perimeter controls", Score: 0.8}}}
	cfg := &BinderConfig{Policy: Policy{RequiredPrefix: "INDOT", AllowAnySource: true}, TopK: 5}

	out, err := NewBinder(cfg, retriever, nil).Bind(context.Background(), testOutput(), testRules())
	if err != nil {
		t.Fatal(err)
	}
	p := out.Practices()[0]
	if p.Citation.Status != engine.CitationRetrieved || p.Citation.Label != `[INDOT:EPA-CGP-2022 p.4 "perimeter controls"]` {
		t.Errorf("citation = %+v", p.Citation)
	}
	if out.Summary.UnverifiedCitations != 0 || retriever.topK != 5 {
		t.Errorf("unverified = %d, topK = %d", out.Summary.UnverifiedCitations, retriever.topK)
	}
}

func TestBinder_DeclaredCitation(t *testing.T) {
	rules := ast.NewRuleSet([]*ast.Rule{
		{ID: "SILT_FENCE_001", Name: "Silt", Citation: &ast.SourceRef{DocID: "INDOT-SS-2024", Page: 205}},
		{ID: "PERM_SEED_001", Name: "Seed", Citation: &ast.SourceRef{DocID: "USDA-NRCS"}},
	}, "", "")
	retriever := &stubRetriever{results: []Citation{{DocID: "INDOT-DM-2013", Page: 7, Excerpt: "seeding", Score: 0.4}}}

	out, err := NewBinder(nil, retriever, nil).Bind(context.Background(), testOutput(), rules)
	if err != nil {
		t.Fatal(err)
	}

	silt := out.TemporaryPractices[0].Citation
	if silt.Status != engine.CitationDeclared || silt.Page != 205 {
		t.Errorf("silt citation = %+v", silt)
	}
	// The seeding rule declares a non-agency source, so retrieval takes over.
	seed := out.PermanentPractices[0].Citation
	if seed.Status != engine.CitationRetrieved || seed.DocID != "INDOT-DM-2013" {
		t.Errorf("seed citation = %+v", seed)
	}
	if len(retriever.queries) != 1 {
		t.Errorf("retriever called %d times, want 1", len(retriever.queries))
	}
}

func TestBinder_RetrieverFailures(t *testing.T) {
	tests := []struct {
		name      string
		retriever Retriever
		want      string
	}{
		{"no retriever", nil, "no reference corpus"},
		{"error", &stubRetriever{err: errors.New("index unavailable")}, "index unavailable"},
		{"no matches", &stubRetriever{}, "no matching"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewBinder(nil, tt.retriever, nil).Bind(context.Background(), testOutput(), testRules())
			if err != nil {
				t.Fatalf("Bind() error = %v", err)
			}
			p := out.Practices()[0]
			if p.Citation.Status != engine.CitationPlaceholder {
				t.Errorf("status = %s", p.Citation.Status)
			}
			if !strings.Contains(p.Annotations[0].Message, tt.want) {
				t.Errorf("annotation = %q, want mention of %q", p.Annotations[0].Message, tt.want)
			}
		})
	}
}
