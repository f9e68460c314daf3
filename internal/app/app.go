// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the pipeline: Genkit with the Gemini
// plugin, the PostgreSQL pool, the embedding client, the vector store, the
// retrieval tool, and the agent. Commands consume App rather than wiring
// components themselves.
package app

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pelican0/pelican/internal/agent"
	"github.com/pelican0/pelican/internal/config"
	"github.com/pelican0/pelican/internal/embed"
	"github.com/pelican0/pelican/internal/log"
	"github.com/pelican0/pelican/internal/retrieval"
	"github.com/pelican0/pelican/internal/vecstore"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	DBPool    *pgxpool.Pool
	Embed     *embed.Client
	VecStore  *vecstore.Store
	Retrieval *retrieval.Tool
	Agent     *agent.Agent

	// Lifecycle management
	cancel context.CancelFunc
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.cancel != nil {
		a.cancel()
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database pool closed")
	}

	return nil
}
