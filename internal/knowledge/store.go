// Package knowledge persists report chunks with pgvector embeddings and
// answers similarity searches over them.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/pgvector/pgvector-go"

	"github.com/luminastro/lumina/internal/sqlc"
)

// Querier defines the database operations Store needs. The interface lives
// with the consumer, not the provider, so tests can substitute a fake without
// a database.
type Querier interface {
	UpsertChunk(ctx context.Context, arg sqlc.UpsertChunkParams) error
	DeleteReportChunks(ctx context.Context, reportID string) error
	CountReportChunks(ctx context.Context, reportID string) (int64, error)
	ListReportChunks(ctx context.Context, arg sqlc.ListReportChunksParams) ([]sqlc.ReportChunk, error)
	SearchChunks(ctx context.Context, arg sqlc.SearchChunksParams) ([]sqlc.SearchChunksRow, error)
}

// Store manages report chunks in PostgreSQL with vector search via pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries Querier
	logger  *slog.Logger
}

// New creates a Store backed by the given querier.
func New(querier Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries: querier,
		logger:  logger,
	}
}

// Add upserts a single chunk row. The conflict target is
// (report_id, chunk_index), so re-ingesting a report overwrites in place.
func (s *Store) Add(ctx context.Context, c Chunk) error {
	embedding := pgvector.NewVector(c.Embedding)
	err := s.queries.UpsertChunk(ctx, sqlc.UpsertChunkParams{
		ReportID:   c.ReportID,
		ChunkIndex: int32(c.Index),
		Content:    c.Content,
		Embedding:  &embedding,
		Section:    c.Section,
		StartChar:  int32(c.StartChar),
		EndChar:    int32(c.EndChar),
		WordCount:  int32(c.WordCount),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert chunk %s/%d: %w", c.ReportID, c.Index, err)
	}

	s.logger.Debug("stored chunk",
		"report_id", c.ReportID,
		"chunk_index", c.Index,
		"content_length", len(c.Content))
	return nil
}

// AddAll upserts every chunk in order. The first storage failure is
// propagated; chunks already written stay written.
func (s *Store) AddAll(ctx context.Context, chunks []Chunk) error {
	for _, c := range chunks {
		if err := s.Add(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes every chunk belonging to a report.
func (s *Store) Delete(ctx context.Context, reportID string) error {
	if err := s.queries.DeleteReportChunks(ctx, reportID); err != nil {
		return fmt.Errorf("failed to delete chunks for report %q: %w", reportID, err)
	}

	s.logger.Debug("deleted report chunks", "report_id", reportID)
	return nil
}

// Count returns the number of stored chunks for a report.
func (s *Store) Count(ctx context.Context, reportID string) (int, error) {
	count, err := s.queries.CountReportChunks(ctx, reportID)
	if err != nil {
		return 0, fmt.Errorf("count failed for report %q: %w", reportID, err)
	}

	// Overflow protection for 32-bit platforms.
	if count > math.MaxInt {
		return 0, fmt.Errorf("chunk count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// List returns up to limit chunks for a report ordered by chunk index.
func (s *Store) List(ctx context.Context, reportID string, limit int) ([]Chunk, error) {
	rows, err := s.queries.ListReportChunks(ctx, sqlc.ListReportChunksParams{
		ReportID:    reportID,
		ResultLimit: int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list failed for report %q: %w", reportID, err)
	}

	chunks := make([]Chunk, 0, len(rows))
	for _, row := range rows {
		c := Chunk{
			ReportID:  row.ReportID,
			Index:     int(row.ChunkIndex),
			Content:   row.Content,
			Section:   row.Section,
			StartChar: int(row.StartChar),
			EndChar:   int(row.EndChar),
			WordCount: int(row.WordCount),
		}
		if row.Embedding != nil {
			c.Embedding = row.Embedding.Slice()
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// Search runs a cosine-similarity nearest-neighbor query restricted to the
// given reports and returns raw candidate rows. Callers are expected to pass
// the result through a Retriever rather than trusting it directly.
func (s *Store) Search(ctx context.Context, reportIDs []string, queryEmbedding []float32, threshold float64, k int) ([]Candidate, error) {
	vec := pgvector.NewVector(queryEmbedding)
	rows, err := s.queries.SearchChunks(ctx, sqlc.SearchChunksParams{
		QueryEmbedding: &vec,
		ReportIds:      reportIDs,
		MinSimilarity:  threshold,
		ResultLimit:    int32(k),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		sim := row.Similarity
		candidates = append(candidates, Candidate{
			ID:         fmt.Sprintf("%s:%d", row.ReportID, row.ChunkIndex),
			ReportID:   row.ReportID,
			Content:    row.Content,
			Section:    row.Section,
			Similarity: &sim,
		})
	}
	return candidates, nil
}
