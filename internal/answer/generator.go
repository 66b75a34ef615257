// Package answer turns a requester's question about a report into a
// grounded, cited answer through a sequential pipeline: build context, call
// the model, parse and validate, derive citations and follow-ups.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/luminastro/lumina/internal/conversation"
	"github.com/luminastro/lumina/internal/knowledge"
	"github.com/luminastro/lumina/internal/quota"
)

// Defaults for the answer pipeline.
const (
	DefaultTopK         = 5
	DefaultThreshold    = 0.3
	DefaultTimeout      = 30 * time.Second
	DefaultMaxAttempts  = 3
	DefaultRetryBase    = 1 * time.Second
	DefaultRetryMax     = 10 * time.Second
	DefaultHistoryLimit = 10
)

// quotaDeniedMessage is returned on an explicit quota denial.
const quotaDeniedMessage = "本期提問次數已用完，請升級方案或購買加問次數。"

// QueryEmbedder turns a question into a query vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// ContextRetriever fetches the chunks most relevant to a query vector.
type ContextRetriever interface {
	Retrieve(ctx context.Context, reportIDs []string, queryEmbedding []float32, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// ConversationStore persists the per-(report, requester) dialogue.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, reportID, requesterID, tier string) (*conversation.Conversation, error)
	Messages(ctx context.Context, conversationID uuid.UUID) ([]conversation.Turn, error)
	Append(ctx context.Context, conversationID uuid.UUID, turns ...conversation.Turn) ([]conversation.Turn, error)
}

// QuotaTracker answers and records question consumption.
type QuotaTracker interface {
	Check(ctx context.Context, requesterID, reportID, tier string) (quota.Status, error)
	Increment(ctx context.Context, requesterID, reportID, tier string) error
}

// TextGenerator is the model call. GenkitModel implements it in production.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config assembles a Generator's dependencies and tuning.
type Config struct {
	Embedder      QueryEmbedder
	Retriever     ContextRetriever
	Conversations ConversationStore
	Quota         QuotaTracker
	Model         TextGenerator
	Logger        *slog.Logger

	TopK         int           // retrieved chunks per question
	Threshold    float64       // minimum similarity for retrieval
	Timeout      time.Duration // hard cap per model attempt
	MaxAttempts  int           // model attempts before giving up
	RetryBase    time.Duration // initial backoff delay
	HistoryLimit int           // trimmed history length
}

func (c *Config) validate() error {
	if c.Embedder == nil {
		return fmt.Errorf("embedder is required")
	}
	if c.Retriever == nil {
		return fmt.Errorf("retriever is required")
	}
	if c.Conversations == nil {
		return fmt.Errorf("conversation store is required")
	}
	if c.Quota == nil {
		return fmt.Errorf("quota tracker is required")
	}
	if c.Model == nil {
		return fmt.Errorf("model is required")
	}
	return nil
}

// Generator answers questions about reports. One logical request flows
// through the pipeline sequentially; independent requests may run
// concurrently, with no shared mutable state beyond the persistent store.
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Generator, applying defaults for unset tuning fields.
func New(cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid answer config: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &Generator{cfg: cfg, logger: cfg.Logger}, nil
}

// Answer runs one question through the pipeline. A quota denial returns a
// Result with Ok=false and no error; system failures return an error and no
// partial answer. Usage is incremented only after a fully validated answer.
func (g *Generator) Answer(ctx context.Context, req Request) (*Result, error) {
	status, err := g.cfg.Quota.Check(ctx, req.RequesterID, req.ReportID, req.Tier)
	if err != nil {
		return nil, fmt.Errorf("quota check failed: %w", err)
	}
	if !status.HasQuota {
		g.logger.Info("question denied by quota",
			"requester_id", req.RequesterID,
			"report_id", req.ReportID,
			"tier", req.Tier)
		return &Result{Ok: false, Message: quotaDeniedMessage}, nil
	}

	st := stateBuildingContext
	chunks := g.buildContext(ctx, req)
	history, conv, err := g.loadHistory(ctx, req)
	if err != nil {
		return nil, err
	}

	st = stateAwaitingModel
	prompt := buildPrompt(chunks, history, req.Question)
	raw, err := withRetry(ctx, g.cfg.MaxAttempts,
		exponentialBackoff(g.cfg.RetryBase, DefaultRetryMax),
		func(ctx context.Context) (string, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
			defer cancel()
			return g.cfg.Model.Generate(attemptCtx, prompt)
		})
	if err != nil {
		g.logger.Error("model call failed",
			"state", st.String(),
			"report_id", req.ReportID,
			"error", err)
		return nil, err
	}

	st = stateParsing
	payload, err := parsePayload(raw, len(chunks) > 0)
	if err != nil {
		g.logger.Warn("model response rejected",
			"state", st.String(),
			"report_id", req.ReportID,
			"error", err)
		return nil, err
	}

	st = stateDone
	citations, sources := deriveCitations(payload.Citations, chunks)
	followUps := suggestFollowUps(req.Question, payload.Answer, req.TopicHints, payload.FollowUps)

	if _, err := g.cfg.Conversations.Append(ctx, conv.ID,
		conversation.Turn{Role: conversation.RoleUser, Content: req.Question},
		conversation.Turn{Role: conversation.RoleAssistant, Content: payload.Answer, Sources: sources},
	); err != nil {
		// The answer is already validated; losing one log entry should not
		// fail the request.
		g.logger.Error("failed to persist turns",
			"conversation_id", conv.ID,
			"error", err)
	}

	if err := g.cfg.Quota.Increment(ctx, req.RequesterID, req.ReportID, req.Tier); err != nil {
		g.logger.Error("failed to increment usage",
			"requester_id", req.RequesterID,
			"report_id", req.ReportID,
			"error", err)
	}

	remaining := status.Remaining
	if remaining > 0 {
		remaining--
	}

	g.logger.Debug("question answered",
		"state", st.String(),
		"report_id", req.ReportID,
		"citations", len(citations),
		"context_chunks", len(chunks))

	return &Result{
		Ok:        true,
		Answer:    payload.Answer,
		Citations: citations,
		FollowUps: followUps,
		Remaining: remaining,
	}, nil
}

// buildContext retrieves the top-K chunks for the question. Retrieval
// failure degrades to an empty-context answer rather than failing the
// request.
func (g *Generator) buildContext(ctx context.Context, req Request) []knowledge.Result {
	queryVec, err := g.cfg.Embedder.EmbedQuery(ctx, req.Question)
	if err != nil {
		g.logger.Warn("query embedding failed, answering without context",
			"report_id", req.ReportID,
			"error", err)
		return nil
	}

	chunks, err := g.cfg.Retriever.Retrieve(ctx, []string{req.ReportID}, queryVec,
		knowledge.WithTopK(g.cfg.TopK),
		knowledge.WithThreshold(g.cfg.Threshold))
	if err != nil {
		g.logger.Warn("context retrieval failed, answering without context",
			"report_id", req.ReportID,
			"error", err)
		return nil
	}
	return chunks
}

func (g *Generator) loadHistory(ctx context.Context, req Request) ([]conversation.Turn, *conversation.Conversation, error) {
	conv, err := g.cfg.Conversations.GetOrCreate(ctx, req.ReportID, req.RequesterID, req.Tier)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	turns, err := g.cfg.Conversations.Messages(ctx, conv.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load history: %w", err)
	}
	return conversation.Trim(turns, g.cfg.HistoryLimit), conv, nil
}

// deriveCitations maps the model's 1-based reference numbers onto the
// retrieved chunks, cross-checking each reference and de-duplicating by
// chunk id in first-seen order. References outside the retrieved set are
// dropped; the model's claims are not trusted blindly.
func deriveCitations(refs []int, chunks []knowledge.Result) ([]string, []conversation.ChunkRef) {
	var citations []string
	var sources []conversation.ChunkRef
	seen := make(map[string]bool, len(refs))

	for _, ref := range refs {
		if ref < 1 || ref > len(chunks) {
			continue
		}
		chunk := chunks[ref-1]
		if seen[chunk.ID] {
			continue
		}
		seen[chunk.ID] = true
		citations = append(citations, chunk.ID)
		sources = append(sources, conversation.ChunkRef{ID: chunk.ID, Section: chunk.Section})
	}
	return citations, sources
}
