package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/pelican0/pelican/db"
	"github.com/pelican0/pelican/internal/agent"
	"github.com/pelican0/pelican/internal/config"
	"github.com/pelican0/pelican/internal/embed"
	"github.com/pelican0/pelican/internal/log"
	"github.com/pelican0/pelican/internal/retrieval"
	"github.com/pelican0/pelican/internal/vecstore"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Embed = embed.New(embedder, cfg.Dimension, logger)
	a.VecStore = vecstore.New(pool, logger)

	tool, err := retrieval.New(retrieval.Config{
		Embedder:   a.Embed,
		Searcher:   a.VecStore,
		Collection: cfg.Collection,
		TopK:       cfg.TopK,
		EfSearch:   cfg.EfSearch,
		Timeout:    time.Duration(cfg.QueryTimeoutMS) * time.Millisecond,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating retrieval tool: %w", err)
	}
	a.Retrieval = tool

	ag, err := agent.New(agent.Config{
		Genkit:    g,
		Tools:     []ai.Tool{tool.Register(g)},
		Logger:    logger,
		ModelName: cfg.FullModelName(),
		MaxTurns:  cfg.MaxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	a.Agent = ag

	_, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	return a, nil
}

// EmbedLimiter builds the rate limiter used to throttle index builds.
func EmbedLimiter(cfg *config.Config) *rate.Limiter {
	if cfg.EmbedRate <= 0 {
		return nil
	}
	burst := cfg.EmbedRateBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.EmbedRate), burst)
}

// provideDBPool creates a PostgreSQL connection pool and runs migrations.
// Pool is configured with sensible defaults for connection management.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the Gemini plugin.
// GEMINI_API_KEY is read by the plugin from the environment.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	logger.Info("initialized Genkit with gemini provider",
		"model", cfg.ModelName, "embedder", cfg.EmbedderModel)
	return g, nil
}
