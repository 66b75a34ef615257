package knowledge_test

import (
	"context"
	"testing"

	"github.com/luminastro/lumina/internal/knowledge"
	"github.com/luminastro/lumina/internal/sqlc"
	"github.com/luminastro/lumina/internal/testutil"
)

// Exercises the chunk store end to end against real pgvector. Requires
// Docker; skipped in short mode.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := knowledge.New(sqlc.New(tdb.Pool), testutil.Logger(t))

	vec := func(x float32) []float32 {
		v := make([]float32, 768)
		v[0] = x
		v[1] = 1 - x
		return v
	}

	chunks := []knowledge.Chunk{
		{ReportID: "r1", Index: 0, Content: "命宮主星坐守。", Embedding: vec(0.9), Section: "總覽", WordCount: 1},
		{ReportID: "r1", Index: 1, Content: "官祿宮吉星匯聚。", Embedding: vec(0.1), Section: "事業", StartChar: 7, EndChar: 15, WordCount: 1},
		{ReportID: "r2", Index: 0, Content: "另一份報告。", Embedding: vec(0.9), WordCount: 1},
	}
	if err := store.AddAll(ctx, chunks); err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}

	count, err := store.Count(ctx, "r1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	// Search restricted to r1: the r2 row with the identical embedding must
	// not appear.
	candidates, err := store.Search(ctx, []string{"r1"}, vec(0.9), 0, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("Search() returned no candidates")
	}
	for _, c := range candidates {
		if c.ReportID != "r1" {
			t.Errorf("candidate from report %q leaked into r1 search", c.ReportID)
		}
	}
	if candidates[0].Content != "命宮主星坐守。" {
		t.Errorf("top candidate = %q, want the closest chunk", candidates[0].Content)
	}

	// Re-ingest overwrites in place.
	if err := store.Add(ctx, knowledge.Chunk{ReportID: "r1", Index: 0, Content: "改寫後內容。", Embedding: vec(0.9)}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	listed, err := store.List(ctx, "r1", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("List() = %d chunks after re-ingest, want 2", len(listed))
	}
	if listed[0].Content != "改寫後內容。" {
		t.Errorf("chunk 0 content = %q after re-ingest", listed[0].Content)
	}

	if err := store.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if count, _ := store.Count(ctx, "r1"); count != 0 {
		t.Errorf("Count() after delete = %d, want 0", count)
	}
}
