// Package testutil provides shared testing utilities for the pelican project.
//
// This package contains reusable test infrastructure used across multiple
// packages, following the pattern of Go standard library packages like
// net/http/httptest and testing/iotest.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"google.golang.org/genai"
)

// MockEmbedder implements ai.Embedder for testing.
//
// Vectors are derived deterministically from the input text so tests can
// assert stable behavior without a provider. The zero value embeds into
// 4 dimensions.
type MockEmbedder struct {
	Dim      int              // output dimension (default 4)
	Err      error            // error to return from Embed
	FailOn   map[string]error // per-input errors keyed by exact text
	Empty    bool             // return a response with no embeddings
	VectorFn func(text string) []float32

	mu        sync.Mutex
	callCount int
	lastText  string
	lastTask  string
}

func (m *MockEmbedder) Name() string { return "mock-embedder" }

func (m *MockEmbedder) Register(api.Registry) {}

func (m *MockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++

	var text string
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		text = req.Input[0].Content[0].Text
	}
	m.lastText = text

	if cfg, ok := req.Options.(*genai.EmbedContentConfig); ok && cfg != nil {
		m.lastTask = cfg.TaskType
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.FailOn[text]; ok {
		return nil, err
	}
	if m.Empty {
		return &ai.EmbedResponse{}, nil
	}

	vec := m.vector(text)
	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: vec}},
	}, nil
}

// vector derives a deterministic vector for text.
func (m *MockEmbedder) vector(text string) []float32 {
	if m.VectorFn != nil {
		return m.VectorFn(text)
	}

	dim := m.Dim
	if dim <= 0 {
		dim = 4
	}

	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	for i := range vec {
		off := (i * 4) % (len(sum) - 4)
		bits := binary.BigEndian.Uint32(sum[off : off+4])
		vec[i] = float32(bits%1000) / 1000
	}
	return vec
}

// CallCount reports how many Embed calls were made.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastText reports the text of the most recent Embed call.
func (m *MockEmbedder) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastText
}

// LastTaskType reports the provider task type of the most recent Embed call.
func (m *MockEmbedder) LastTaskType() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTask
}
