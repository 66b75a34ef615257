package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// defaultSimilarity is assigned to candidates whose score is missing. The
// search capability is external and its result shape is not fully trusted, so
// a missing score demotes a candidate to "middling" rather than rejecting it.
const defaultSimilarity = 0.5

// Searcher is the nearest-neighbor search capability the Retriever validates.
// Store satisfies it in production; tests substitute a fake returning
// malformed rows.
type Searcher interface {
	Search(ctx context.Context, reportIDs []string, queryEmbedding []float32, threshold float64, k int) ([]Candidate, error)
}

// Retriever wraps a Searcher with the sanitize-then-rank validation pass.
// No candidate reaches a caller without passing through Sanitize.
type Retriever struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewRetriever creates a Retriever over the given search capability.
func NewRetriever(searcher Searcher, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		searcher: searcher,
		logger:   logger,
	}
}

// Retrieve returns the top-K chunks most similar to the query embedding,
// restricted to the given reports, sanitized and re-ranked.
func (r *Retriever) Retrieve(ctx context.Context, reportIDs []string, queryEmbedding []float32, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	candidates, err := r.searcher.Search(ctx, reportIDs, queryEmbedding, cfg.threshold, cfg.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	results := r.Sanitize(candidates)
	if len(results) > cfg.topK {
		results = results[:cfg.topK]
	}
	return results, nil
}

// Sanitize validates raw candidate rows:
//   - candidates lacking a usable id or non-empty content are dropped
//   - a missing similarity score is defaulted to 0.5 rather than rejected
//   - the final list is re-sorted descending by similarity, independent of
//     the order the search capability returned
func (r *Retriever) Sanitize(candidates []Candidate) []Result {
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == "" || c.Content == "" {
			r.logger.Debug("dropping malformed search candidate",
				"id", c.ID,
				"has_content", c.Content != "")
			continue
		}

		sim := defaultSimilarity
		if c.Similarity != nil {
			sim = *c.Similarity
		}

		results = append(results, Result{
			ID:         c.ID,
			ReportID:   c.ReportID,
			Content:    c.Content,
			Section:    c.Section,
			Similarity: sim,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results
}
