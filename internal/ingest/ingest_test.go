package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/luminastro/lumina/internal/chunk"
	"github.com/luminastro/lumina/internal/knowledge"
	"github.com/luminastro/lumina/internal/testutil"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedAll(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{float32(i), 1}
	}
	return vecs, nil
}

type fakeStore struct {
	chunks  map[string][]knowledge.Chunk
	addErr  error
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{chunks: make(map[string][]knowledge.Chunk)}
}

func (f *fakeStore) AddAll(_ context.Context, chunks []knowledge.Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	for _, c := range chunks {
		f.chunks[c.ReportID] = append(f.chunks[c.ReportID], c)
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, reportID string) error {
	f.deleted = append(f.deleted, reportID)
	delete(f.chunks, reportID)
	return nil
}

func (f *fakeStore) Count(_ context.Context, reportID string) (int, error) {
	return len(f.chunks[reportID]), nil
}

func reportText() string {
	var b strings.Builder
	b.WriteString("# 命盤總覽\n\n")
	b.WriteString(strings.Repeat("命宮主星坐守，格局清奇。", 30))
	b.WriteString("\n\n# 事業\n\n")
	b.WriteString(strings.Repeat("官祿宮吉星匯聚，事業運程向上。", 30))
	return b.String()
}

func TestProcessStoresChunks(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p, err := New(nil, &fakeEmbedder{}, store, testutil.Logger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	n, err := p.Process(context.Background(), "report-1", reportText())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n == 0 {
		t.Fatal("Process() stored no chunks")
	}

	stored := store.chunks["report-1"]
	if len(stored) != n {
		t.Fatalf("stored %d chunks, reported %d", len(stored), n)
	}
	for i, c := range stored {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if len(c.Embedding) == 0 {
			t.Errorf("chunk %d has no embedding", i)
		}
		if c.WordCount == 0 {
			t.Errorf("chunk %d has zero word count", i)
		}
	}
	if stored[0].Section != "命盤總覽" {
		t.Errorf("first chunk section = %q, want 命盤總覽", stored[0].Section)
	}
	if last := stored[len(stored)-1]; last.Section != "事業" {
		t.Errorf("last chunk section = %q, want 事業", last.Section)
	}
}

func TestProcessDegenerateText(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p, err := New(nil, &fakeEmbedder{}, store, testutil.Logger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	n, err := p.Process(context.Background(), "report-1", "   \n\t ")
	if err != nil {
		t.Fatalf("Process() error = %v, degenerate text must not fail", err)
	}
	if n != 0 {
		t.Errorf("Process() = %d chunks for whitespace, want 0", n)
	}
}

func TestProcessPropagatesStorageFailure(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("disk full")
	store := newFakeStore()
	store.addErr = wantErr
	p, err := New(nil, &fakeEmbedder{}, store, testutil.Logger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Process(context.Background(), "report-1", reportText())
	if !errors.Is(err, wantErr) {
		t.Errorf("Process() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestProcessPropagatesEmbeddingFailure(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("embedder offline")
	p, err := New(nil, &fakeEmbedder{err: wantErr}, newFakeStore(), testutil.Logger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Process(context.Background(), "report-1", reportText())
	if !errors.Is(err, wantErr) {
		t.Errorf("Process() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestProcessSectionInheritance(t *testing.T) {
	t.Parallel()

	// Long section body split across several chunks: each keeps the heading.
	text := "# 財帛\n\n" + strings.Repeat("財帛宮化祿，收入漸長。", 120)
	store := newFakeStore()
	p, err := New(chunk.New(chunk.Options{TargetSize: 300, Overlap: 50, MinSize: 50}),
		&fakeEmbedder{}, store, testutil.Logger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	n, err := p.Process(context.Background(), "report-1", text)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n < 2 {
		t.Fatalf("expected multiple chunks, got %d", n)
	}
	for i, c := range store.chunks["report-1"] {
		if c.Section != "財帛" {
			t.Errorf("chunk %d section = %q, want 財帛", i, c.Section)
		}
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p, err := New(nil, &fakeEmbedder{}, store, testutil.Logger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := p.Process(context.Background(), "report-1", reportText()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if err := p.Remove(context.Background(), "report-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(store.chunks["report-1"]) != 0 {
		t.Error("chunks remain after Remove()")
	}
}
