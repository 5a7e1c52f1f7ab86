// Package app wires configuration, storage, the Gemini client, and the
// question answering pipeline into a ready-to-run application.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorekeep/lorekeep/db"
	"github.com/lorekeep/lorekeep/internal/config"
	"github.com/lorekeep/lorekeep/internal/ingest"
	"github.com/lorekeep/lorekeep/internal/observability"
	"github.com/lorekeep/lorekeep/internal/passage"
	"github.com/lorekeep/lorekeep/internal/rag"
	"github.com/lorekeep/lorekeep/internal/session"
)

// App holds the assembled application components.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Store    *passage.Store
	Sessions *session.Registry
	Pipeline *rag.Pipeline

	shutdownTracing func(context.Context) error
}

// Setup loads configuration, runs migrations, and builds every
// component. On error, anything already opened is closed.
func Setup(ctx context.Context, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	// Tracing must be registered before genkit.Init so model call spans
	// reach the exporter.
	shutdownTracing := func(context.Context) error { return nil }
	if cfg.OTLPEndpoint != "" {
		shutdownTracing, err = observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.OTLPEndpoint,
			ServiceName: "lorekeep",
		})
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)

	store := passage.NewStore(pool, embedder, cfg.SearchTimeout, logger)
	sessions := session.NewRegistry()

	pipeline, err := rag.NewPipeline(rag.Config{
		Generator:       rag.NewModelGenerator(g, cfg.ModelName, nil, logger),
		Retriever:       rag.NewStoreRetriever(store, cfg.SearchWidth),
		Sessions:        sessions,
		Logger:          logger,
		DefaultTopK:     cfg.TopK,
		MaxTopK:         config.MaxTopK,
		GenerateTimeout: cfg.GenerateTimeout,
		SearchTimeout:   cfg.SearchTimeout,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	logger.Info("application ready",
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel,
		"listen_addr", cfg.ListenAddr,
	)

	return &App{
		Config:          cfg,
		Logger:          logger,
		Pool:            pool,
		Genkit:          g,
		Embedder:        embedder,
		Store:           store,
		Sessions:        sessions,
		Pipeline:        pipeline,
		shutdownTracing: shutdownTracing,
	}, nil
}

// NewIngester builds an Ingester over the app's passage store using the
// configured chunking parameters.
func (a *App) NewIngester() (*ingest.Ingester, error) {
	return ingest.New(ingest.Config{
		Store:         a.Store,
		Logger:        a.Logger,
		ChunkSize:     a.Config.ChunkSize,
		ChunkOverlap:  a.Config.ChunkOverlap,
		MinArticleLen: a.Config.MinArticleLen,
		SourceLabel:   a.Config.CorpusSource,
	})
}

// Close releases the app's resources, flushing pending trace spans.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			firstErr = fmt.Errorf("shutting down tracing: %w", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	return firstErr
}
