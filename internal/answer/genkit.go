package answer

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// GenkitModel adapts a Genkit model to the TextGenerator interface. A
// proactive rate limiter paces requests below the provider quota so the
// retry path stays the exception, not the norm.
type GenkitModel struct {
	g         *genkit.Genkit
	modelName string
	limiter   *rate.Limiter
}

// NewGenkitModel creates a TextGenerator backed by the named Genkit model,
// e.g. "googleai/gemini-2.5-flash". A nil limiter installs the default of
// 10 requests/sec sustained with a burst of 30.
func NewGenkitModel(g *genkit.Genkit, modelName string, limiter *rate.Limiter) *GenkitModel {
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}
	return &GenkitModel{g: g, modelName: modelName, limiter: limiter}
}

// Generate runs a single completion and returns the raw response text.
func (m *GenkitModel) Generate(ctx context.Context, prompt string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	resp, err := genkit.Generate(ctx, m.g,
		ai.WithModelName(m.modelName),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", m.modelName, err)
	}
	return resp.Text(), nil
}
