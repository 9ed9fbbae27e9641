package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"

	"ecagent-hq/ecagent/pkg/citation"
)

const excerptLength = 200

// Passage is one indexed page of a reference document.
type Passage struct {
	DocID string
	Page  int
	Text  string
}

// Index is an immutable TF-IDF index. It implements citation.Retriever and is
// safe for concurrent use.
type Index struct {
	passages []Passage
	vectors  []map[string]float64
	idf      map[string]float64
	skipped  []string
}

// Build indexes every document listed in dir's manifest. Documents that
// cannot be read are skipped and reported by Skipped.
func Build(dir string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "citation_index")

	entries, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	var passages []Passage
	var skipped []string
	for _, entry := range entries {
		if entry.DocID == "" || entry.Filename == "" {
			skipped = append(skipped, fmt.Sprintf("manifest entry %q is incomplete", entry.DocID))
			continue
		}
		text, err := loadText(filepath.Join(dir, entry.Filename))
		if err != nil {
			logger.Warn("skipping reference document", "doc_id", entry.DocID, "error", err)
			skipped = append(skipped, fmt.Sprintf("%s: %v", entry.DocID, err))
			continue
		}
		for i, chunk := range chunkText(text, pageWords) {
			passages = append(passages, Passage{DocID: entry.DocID, Page: i + 1, Text: chunk})
		}
	}

	idx := New(passages)
	idx.skipped = skipped
	logger.Info("reference index built",
		"documents", len(entries)-len(skipped),
		"passages", len(passages),
		"vocabulary", len(idx.idf),
	)
	return idx, nil
}

// New indexes the given passages.
func New(passages []Passage) *Index {
	idx := &Index{
		passages: passages,
		vectors:  make([]map[string]float64, len(passages)),
		idf:      make(map[string]float64),
	}

	counts := make([]map[string]int, len(passages))
	df := make(map[string]int)
	for i, p := range passages {
		tf := termCounts(tokenize(p.Text))
		counts[i] = tf
		for term := range tf {
			df[term]++
		}
	}

	n := float64(len(passages))
	for term, d := range df {
		idx.idf[term] = math.Log((1+n)/(1+float64(d))) + 1
	}

	for i, tf := range counts {
		idx.vectors[i] = idx.weigh(tf)
	}
	return idx
}

// Len returns the number of indexed passages.
func (idx *Index) Len() int {
	return len(idx.passages)
}

// Skipped lists documents Build could not index.
func (idx *Index) Skipped() []string {
	return idx.skipped
}

// Retrieve returns up to topK passages ranked by cosine similarity to query.
// Passages with zero similarity are never returned.
func (idx *Index) Retrieve(ctx context.Context, query string, topK int) ([]citation.Citation, error) {
	if topK <= 0 {
		topK = citation.DefaultTopK
	}

	q := idx.weigh(termCounts(tokenize(query)))
	if len(q) == 0 {
		return nil, nil
	}

	type scored struct {
		i     int
		score float64
	}
	var hits []scored
	for i, vec := range idx.vectors {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var dot float64
		for term, w := range q {
			dot += w * vec[term]
		}
		if dot > 0 {
			hits = append(hits, scored{i: i, score: dot})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]citation.Citation, len(hits))
	for k, h := range hits {
		p := idx.passages[h.i]
		out[k] = citation.Citation{
			DocID:   p.DocID,
			Page:    p.Page,
			Excerpt: citation.Truncate(p.Text, excerptLength),
			Score:   h.score,
		}
	}
	return out, nil
}

// weigh converts term counts to an L2-normalised TF-IDF vector. Terms outside
// the vocabulary are dropped.
func (idx *Index) weigh(tf map[string]int) map[string]float64 {
	vec := make(map[string]float64, len(tf))
	var norm float64
	for term, c := range tf {
		idf, ok := idx.idf[term]
		if !ok {
			continue
		}
		w := float64(c) * idf
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return map[string]float64{}
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func termCounts(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

var _ citation.Retriever = (*Index)(nil)
