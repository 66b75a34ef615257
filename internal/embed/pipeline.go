// Package embed turns chunk text into embedding vectors.
//
// The pipeline processes chunks sequentially in fixed-size batches with a
// throttle between batches. It never aborts a whole report because one chunk
// failed to embed: the failed item is logged and replaced with a zero vector
// of the provider dimension. Callers that need to know whether embedding
// actually succeeded must check for zero vectors explicitly (IsZeroVector).
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"
)

const (
	// DefaultDimension matches gemini-embedding-001 truncated output; see the
	// vector column width in db/migrations.
	DefaultDimension = 768

	// DefaultBatchSize is the number of chunks embedded between throttle
	// waits.
	DefaultBatchSize = 10
)

// Config contains all parameters for the embedding pipeline.
type Config struct {
	Embedder ai.Embedder // Required
	Logger   *slog.Logger

	BatchSize int // Chunks per batch (default 10)
	Dimension int // Vector width used for zero vectors (default 768)

	// Limiter paces batches against the provider's rate limit.
	// Nil installs a conservative default (1 batch/sec, burst 2).
	Limiter *rate.Limiter
}

// Pipeline embeds chunk text through an ai.Embedder.
// It is safe for concurrent use; each call processes its input sequentially.
type Pipeline struct {
	embedder  ai.Embedder
	logger    *slog.Logger
	batchSize int
	dimension int
	limiter   *rate.Limiter
}

// New creates an embedding Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	dim := cfg.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(1, 2)
	}

	return &Pipeline{
		embedder:  cfg.Embedder,
		logger:    logger,
		batchSize: batch,
		dimension: dim,
		limiter:   limiter,
	}, nil
}

// EmbedAll embeds every chunk text and returns one vector per input, in
// order. A per-item embedding failure yields a zero vector in that position;
// only context cancellation aborts the run.
func (p *Pipeline) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += p.batchSize {
		// Throttle each batch, not each item: the pause between batches is a
		// deliberate concession to the provider's rate limit.
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		end := min(start+p.batchSize, len(texts))
		for i := start; i < end; i++ {
			vec, err := p.embedOne(ctx, texts[i])
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("embedding aborted: %w", ctx.Err())
				}
				p.logger.Warn("embedding chunk failed, storing zero vector",
					"chunk_index", i,
					"content_length", len(texts[i]),
					"error", err)
				vec = make([]float32, p.dimension)
			}
			vectors = append(vectors, vec)
		}

		p.logger.Debug("embedded batch", "from", start, "to", end)
	}

	return vectors, nil
}

// EmbedQuery embeds a single query string. Unlike EmbedAll, a failure is
// returned to the caller: a question without a usable query vector cannot be
// answered from retrieval.
func (p *Pipeline) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vec, err := p.embedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vec, nil
}

func (p *Pipeline) embedOne(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return resp.Embeddings[0].Embedding, nil
}

// IsZeroVector reports whether vec is a placeholder produced for a failed
// embedding (or is empty).
func IsZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
