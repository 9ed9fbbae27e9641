package citation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ecagent-hq/ecagent/pkg/engine"
	"ecagent-hq/ecagent/pkg/rules/ast"
)

// BinderConfig configures a Binder.
type BinderConfig struct {
	Policy Policy
	TopK   int
}

// DefaultBinderConfig returns the default binder configuration.
func DefaultBinderConfig() *BinderConfig {
	return &BinderConfig{
		Policy: DefaultPolicy(),
		TopK:   DefaultTopK,
	}
}

// Binder attaches citations to practices.
type Binder struct {
	retriever Retriever
	policy    Policy
	topK      int
	logger    *slog.Logger
}

// NewBinder creates a binder. retriever may be nil, in which case only
// rule-declared citations are used.
func NewBinder(cfg *BinderConfig, retriever Retriever, logger *slog.Logger) *Binder {
	if cfg == nil {
		cfg = DefaultBinderConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Binder{
		retriever: retriever,
		policy:    cfg.Policy,
		topK:      topK,
		logger:    logger.With("component", "citation"),
	}
}

// Bind sets a citation on every practice in out and recounts unverified
// citations in the summary. rules supplies declared citations and the text
// used for retrieval; practices whose rule is not in the set are still bound
// by retrieval over their justification. Bind only fails when ctx is done.
func (b *Binder) Bind(ctx context.Context, out *engine.ProjectOutput, rules *ast.RuleSet) (*engine.ProjectOutput, error) {
	unverified := 0
	for _, p := range out.Practices() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rule, _ := rules.Get(p.RuleID)
		ref, reason := b.bindOne(ctx, p, rule)
		p.Citation = ref

		if ref.Status == engine.CitationPlaceholder {
			unverified++
			out.Annotate(engine.Annotation{
				RuleID:  p.RuleID,
				Kind:    engine.AnnotationCitation,
				Message: reason,
			})
		}
	}

	out.Summary.UnverifiedCitations = unverified
	return out, nil
}

func (b *Binder) bindOne(ctx context.Context, p *engine.Practice, rule *ast.Rule) (*engine.CitationRef, string) {
	if rule != nil && rule.Citation != nil {
		declared := Citation{DocID: rule.Citation.DocID, Page: rule.Citation.Page, Excerpt: rule.Citation.Excerpt}
		if b.policy.Accepts(declared.DocID) {
			return b.ref(engine.CitationDeclared, declared), ""
		}
		b.logger.Debug("declared citation rejected by policy", "rule_id", p.RuleID, "doc_id", declared.DocID)
	}

	if b.retriever == nil {
		return b.placeholder(), "no reference corpus configured"
	}

	query := retrievalQuery(p, rule)
	matches, err := b.retriever.Retrieve(ctx, query, b.topK)
	if err != nil {
		b.logger.Warn("citation retrieval failed", "rule_id", p.RuleID, "error", err)
		return b.placeholder(), fmt.Sprintf("citation retrieval failed: %v", err)
	}
	if len(matches) == 0 {
		return b.placeholder(), "no matching reference passage"
	}

	top := matches[0]
	if !b.policy.Accepts(top.DocID) {
		return b.placeholder(), fmt.Sprintf("best match %s is not a %s document", top.DocID, b.policy.prefix())
	}
	return b.ref(engine.CitationRetrieved, top), ""
}

func (b *Binder) ref(status engine.CitationStatus, c Citation) *engine.CitationRef {
	return &engine.CitationRef{
		Status:  status,
		DocID:   c.DocID,
		Page:    c.Page,
		Excerpt: c.Excerpt,
		Score:   c.Score,
		Label:   c.Label(b.policy.prefix()),
	}
}

func (b *Binder) placeholder() *engine.CitationRef {
	return &engine.CitationRef{
		Status: engine.CitationPlaceholder,
		Label:  b.policy.Placeholder(),
	}
}

func retrievalQuery(p *engine.Practice, rule *ast.Rule) string {
	parts := make([]string, 0, 3)
	if rule != nil && rule.Name != "" {
		parts = append(parts, rule.Name)
	} else {
		parts = append(parts, strings.ReplaceAll(string(p.PracticeType), "_", " "))
	}
	if p.Justification != "" {
		parts = append(parts, p.Justification)
	}
	return strings.Join(parts, " ")
}
