// Package testutil provides shared testing utilities for the lumina project.
//
// It contains reusable fakes and infrastructure helpers used across package
// tests, following the pattern of net/http/httptest.
package testutil

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// Embedder is a deterministic in-memory ai.Embedder for tests.
//
// Vectors are derived from the input text, so equal text always embeds to the
// same vector and similarity comparisons are stable across runs. FailOn can
// inject per-item failures.
type Embedder struct {
	// Dimension of produced vectors. Zero means 768.
	Dimension int

	// FailOn, when non-nil, is consulted per input text; a non-nil error
	// fails that Embed call.
	FailOn func(text string) error

	mu    sync.Mutex
	calls []string
}

// Name implements ai.Embedder.
func (e *Embedder) Name() string { return "testutil/embedder" }

// Register implements ai.Embedder. No-op for testing.
func (e *Embedder) Register(r api.Registry) {}

// Embed implements ai.Embedder.
func (e *Embedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		text := ""
		if len(doc.Content) > 0 {
			text = doc.Content[0].Text
		}

		e.mu.Lock()
		e.calls = append(e.calls, text)
		e.mu.Unlock()

		if e.FailOn != nil {
			if err := e.FailOn(text); err != nil {
				return nil, err
			}
		}

		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: e.vectorFor(text),
		})
	}
	return resp, nil
}

// Calls returns the texts embedded so far, in order.
func (e *Embedder) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// VectorFor exposes the deterministic vector for a given text so tests can
// assert on expected embeddings.
func (e *Embedder) VectorFor(text string) []float32 {
	return e.vectorFor(text)
}

func (e *Embedder) vectorFor(text string) []float32 {
	dim := e.Dimension
	if dim <= 0 {
		dim = 768
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dim)
	for i := range vec {
		// xorshift keeps the sequence cheap and reproducible.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		vec[i] = float32(seed%1000)/1000 - 0.5
	}
	return vec
}
