// Package ingest turns finished report text into stored, embedded chunks
// ready for retrieval.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/luminastro/lumina/internal/chunk"
	"github.com/luminastro/lumina/internal/knowledge"
)

// Embedder is the batch embedding capability, satisfied by embed.Pipeline.
type Embedder interface {
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists chunk rows, satisfied by knowledge.Store.
type ChunkStore interface {
	AddAll(ctx context.Context, chunks []knowledge.Chunk) error
	Delete(ctx context.Context, reportID string) error
	Count(ctx context.Context, reportID string) (int, error)
}

// Processor chunks, embeds, and stores one report's text.
type Processor struct {
	splitter *chunk.Splitter
	embedder Embedder
	store    ChunkStore
	logger   *slog.Logger
}

// New creates a Processor. A nil splitter gets the default chunking sizes.
func New(splitter *chunk.Splitter, embedder Embedder, store ChunkStore, logger *slog.Logger) (*Processor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("chunk store is required")
	}
	if splitter == nil {
		splitter = chunk.New(chunk.Options{Overlap: chunk.DefaultOverlap})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		splitter: splitter,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}, nil
}

// Process splits the report text into chunks, embeds them, and stores the
// rows. A storage failure is propagated to the caller; the report text
// itself is untouched. Degenerate text stores nothing and returns 0.
func (p *Processor) Process(ctx context.Context, reportID, text string) (int, error) {
	pieces := p.splitter.Pieces(text)
	if len(pieces) == 0 {
		p.logger.Debug("nothing to ingest", "report_id", reportID)
		return 0, nil
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text
	}

	embeddings, err := p.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed report %q: %w", reportID, err)
	}
	if len(embeddings) != len(pieces) {
		return 0, fmt.Errorf("embedding count %d does not match chunk count %d", len(embeddings), len(pieces))
	}

	marks := headingMarks(text)
	chunks := make([]knowledge.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = knowledge.Chunk{
			ReportID:  reportID,
			Index:     i,
			Content:   piece.Text,
			Embedding: embeddings[i],
			Section:   sectionFor(marks, piece.Start),
			StartChar: piece.Start,
			EndChar:   piece.End,
			WordCount: chunk.WordCount(piece.Text),
		}
	}

	if err := p.store.AddAll(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks for report %q: %w", reportID, err)
	}

	p.logger.Info("report ingested",
		"report_id", reportID,
		"chunks", len(chunks))
	return len(chunks), nil
}

// Remove deletes every stored chunk for a report.
func (p *Processor) Remove(ctx context.Context, reportID string) error {
	return p.store.Delete(ctx, reportID)
}

// headingMark records a markdown heading and the rune offset of its line.
type headingMark struct {
	offset int
	label  string
}

// headingMarks scans the full report text for heading lines. Offsets are in
// runes to line up with chunk spans.
func headingMarks(text string) []headingMark {
	var marks []headingMark
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		if label := chunk.Section(line); label != "" {
			marks = append(marks, headingMark{offset: offset, label: label})
		}
		offset += len([]rune(line)) + 1
	}
	return marks
}

// sectionFor returns the label of the last heading at or before the chunk's
// start; empty when no heading precedes it.
func sectionFor(marks []headingMark, start int) string {
	section := ""
	for _, m := range marks {
		if m.offset > start {
			break
		}
		section = m.label
	}
	return section
}
