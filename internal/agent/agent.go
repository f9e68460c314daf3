// Package agent runs the grounded question-answering loop.
//
// The agent answers only from retrieved context: the system prompt directs
// the model to call the search tool before answering and to decline when
// retrieval comes back empty, rather than fall back on parametric memory.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/pelican0/pelican/internal/log"
)

// Name is the unique identifier for the assistant agent.
const Name = "pelican"

// systemPrompt binds the model to the knowledge base.
const systemPrompt = `You are a helpful assistant for an indexed knowledge base. Use the search_vector_db tool for questions about programs, courses, admissions, curriculum, or policies.
Do not guess - always rely on database info. Be friendly, clear, and accurate.
If the search returns no relevant information or an error, apologize and say you could not find the answer. Never invent facts that are not in the search results.`

// FallbackResponseMessage is returned when the model produces an empty response.
const FallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

// Response represents the complete result of an agent execution.
type Response struct {
	FinalText    string            // Model's final text output
	ToolRequests []*ai.ToolRequest // Tool requests made during execution
}

// Config contains all required parameters for the agent.
type Config struct {
	Genkit *genkit.Genkit
	Tools  []ai.Tool // Pre-registered tools
	Logger log.Logger

	ModelName string // Fully qualified model name, e.g. "googleai/gemini-2.5-flash"
	MaxTurns  int    // Maximum agentic loop turns

	// Resilience configuration
	RetryConfig RetryConfig   // Model call retry settings (zero-value uses defaults)
	RateLimiter *rate.Limiter // Optional proactive rate limiting (nil = use default)
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Agent is the grounded question-answering controller.
//
// Agent is stateless; configuration is captured immutably at construction
// so concurrent Execute calls are safe.
type Agent struct {
	modelName string
	maxTurns  int

	retryConfig RetryConfig
	rateLimiter *rate.Limiter

	g         *genkit.Genkit
	logger    log.Logger
	tools     []ai.Tool
	toolRefs  []ai.ToolRef // cached, ai.Tool implements ai.ToolRef
	toolNames string       // cached as comma-separated for logging
}

// New creates an agent with required configuration.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	a := &Agent{
		modelName:   cfg.ModelName,
		maxTurns:    maxTurns,
		retryConfig: retryConfig,
		rateLimiter: rl,
		g:           cfg.Genkit,
		logger:      cfg.Logger,
		tools:       cfg.Tools,
		toolRefs:    toolRefs,
		toolNames:   strings.Join(names, ", "),
	}

	a.logger.Info("agent initialized",
		"model", a.modelName,
		"totalTools", len(a.tools),
		"maxTurns", a.maxTurns,
	)

	return a, nil
}

// Execute runs one question through the agentic loop and returns the
// final grounded answer.
func (a *Agent) Execute(ctx context.Context, input string) (*Response, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("input is empty")
	}

	a.logger.Debug("executing agent",
		"tools", a.toolNames,
		"maxTurns", a.maxTurns,
		"queryLength", len(input),
	)

	opts := []ai.GenerateOption{
		ai.WithModelName(a.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(input),
		ai.WithTools(a.toolRefs...),
		ai.WithMaxTurns(a.maxTurns),
	}

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	responseText := resp.Text()

	// Only apply the fallback when truly empty: empty text alongside tool
	// requests is valid agentic behavior.
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response with no tool requests")
		responseText = FallbackResponseMessage
	}

	return &Response{
		FinalText:    responseText,
		ToolRequests: resp.ToolRequests(),
	}, nil
}
