// Package app wires the lumina components together.
//
// Setup builds the full pipeline from configuration: database pool, Genkit
// with the Google AI plugin, embedding pipeline, chunk store, conversation
// store, quota tracker and the answer generator. Close releases everything
// in reverse order.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/luminastro/lumina/internal/answer"
	"github.com/luminastro/lumina/internal/chunk"
	"github.com/luminastro/lumina/internal/config"
	"github.com/luminastro/lumina/internal/conversation"
	"github.com/luminastro/lumina/internal/database"
	"github.com/luminastro/lumina/internal/embed"
	"github.com/luminastro/lumina/internal/ingest"
	"github.com/luminastro/lumina/internal/knowledge"
	"github.com/luminastro/lumina/internal/observability"
	"github.com/luminastro/lumina/internal/quota"
	"github.com/luminastro/lumina/internal/sqlc"
)

// App holds the initialized components and their cleanup functions.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Pipeline      *embed.Pipeline
	Store         *knowledge.Store
	Retriever     *knowledge.Retriever
	Conversations *conversation.Store
	Quota         *quota.Tracker
	Ingestor      *ingest.Processor
	Generator     *answer.Generator

	dbCleanup    func()
	traceCleanup func(context.Context) error
}

// setupFailed tears down whatever Setup already initialized and passes the
// error through.
func (a *App) setupFailed(err error) (*App, error) {
	if closeErr := a.Close(); closeErr != nil {
		a.Logger.Warn("cleanup during setup failure", "error", closeErr)
	}
	return nil, err
}

// Setup creates and initializes the application from configuration.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// Tracing must be set up before genkit.Init so the TracerProvider is
	// ready when Genkit registers its spans.
	traceCleanup, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.TracingEndpoint,
		Environment: cfg.Environment,
		ServiceName: "lumina",
	}, logger)
	if err != nil {
		return a.setupFailed(fmt.Errorf("setting up tracing: %w", err))
	}
	a.traceCleanup = traceCleanup

	pool, dbCleanup, err := database.Open(ctx, cfg.PostgresConnectionString(), cfg.PostgresURL())
	if err != nil {
		return a.setupFailed(fmt.Errorf("opening database: %w", err))
	}
	a.DBPool = pool
	a.dbCleanup = dbCleanup

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return a.setupFailed(fmt.Errorf("initializing genkit"))
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return a.setupFailed(fmt.Errorf("embedder %q not found", cfg.EmbedderModel))
	}
	a.Embedder = embedder

	pipeline, err := embed.New(embed.Config{
		Embedder:  embedder,
		Logger:    logger,
		BatchSize: cfg.EmbedBatchSize,
		Dimension: cfg.EmbedDimension,
		Limiter:   rate.NewLimiter(rate.Every(time.Duration(cfg.EmbedBatchDelay)*time.Millisecond), 2),
	})
	if err != nil {
		return a.setupFailed(fmt.Errorf("creating embed pipeline: %w", err))
	}
	a.Pipeline = pipeline

	queries := sqlc.New(pool)
	a.Store = knowledge.New(queries, logger)
	a.Retriever = knowledge.NewRetriever(a.Store, logger)
	a.Conversations = conversation.New(queries, pool, logger)
	a.Quota = quota.New(queries, logger, quota.WithLimits(cfg.TierLimits()))

	splitter := chunk.New(chunk.Options{
		TargetSize: cfg.ChunkTargetSize,
		Overlap:    cfg.ChunkOverlap,
		MinSize:    cfg.ChunkMinSize,
	})
	ingestor, err := ingest.New(splitter, pipeline, a.Store, logger)
	if err != nil {
		return a.setupFailed(fmt.Errorf("creating ingestor: %w", err))
	}
	a.Ingestor = ingestor

	generator, err := answer.New(answer.Config{
		Embedder:      pipeline,
		Retriever:     a.Retriever,
		Conversations: a.Conversations,
		Quota:         a.Quota,
		Model:         answer.NewGenkitModel(g, cfg.ModelName, nil),
		Logger:        logger,
		TopK:          cfg.RetrievalTopK,
		Threshold:     cfg.SimilarityThreshold,
		Timeout:       time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
		MaxAttempts:   cfg.ModelMaxAttempts,
		HistoryLimit:  cfg.HistoryLimit,
	})
	if err != nil {
		return a.setupFailed(fmt.Errorf("creating answer generator: %w", err))
	}
	a.Generator = generator

	return a, nil
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	if a.traceCleanup != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.traceCleanup(ctx); err != nil {
			return fmt.Errorf("shutting down tracing: %w", err)
		}
		a.traceCleanup = nil
	}
	return nil
}
