package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/pelican0/pelican/internal/log"
	"github.com/pelican0/pelican/internal/testutil"
)

func TestEmbed_EmptyInput(t *testing.T) {
	mock := &testutil.MockEmbedder{}
	client := New(mock, 768, log.NewNop())

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := client.Embed(context.Background(), text, IntentDocument)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Embed(%q) = %v, want ErrEmptyInput", text, err)
		}
	}

	// Blank input must never reach the provider.
	if got := mock.CallCount(); got != 0 {
		t.Errorf("provider called %d times for blank input, want 0", got)
	}
}

func TestEmbed_TaskTypes(t *testing.T) {
	mock := &testutil.MockEmbedder{Dim: 8}
	client := New(mock, 0, log.NewNop())

	if _, err := client.Embed(context.Background(), "corpus text", IntentDocument); err != nil {
		t.Fatalf("Embed(document) error: %v", err)
	}
	if got := mock.LastTaskType(); got != "RETRIEVAL_DOCUMENT" {
		t.Errorf("document task type = %q", got)
	}

	if _, err := client.Embed(context.Background(), "a question", IntentQuery); err != nil {
		t.Fatalf("Embed(query) error: %v", err)
	}
	if got := mock.LastTaskType(); got != "RETRIEVAL_QUERY" {
		t.Errorf("query task type = %q", got)
	}
}

func TestEmbed_StableDimension(t *testing.T) {
	mock := &testutil.MockEmbedder{Dim: 16}
	client := New(mock, 16, log.NewNop())

	v1, err := client.Embed(context.Background(), "same text", IntentDocument)
	if err != nil {
		t.Fatalf("first Embed error: %v", err)
	}
	v2, err := client.Embed(context.Background(), "same text", IntentDocument)
	if err != nil {
		t.Fatalf("second Embed error: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("dimension not stable across calls: %d vs %d", len(v1), len(v2))
	}
}

func TestEmbed_ProviderError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	mock := &testutil.MockEmbedder{Err: wantErr}
	client := New(mock, 768, log.NewNop())

	_, err := client.Embed(context.Background(), "text", IntentDocument)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Embed() = %v, want wrapped provider error", err)
	}
}

func TestEmbed_EmptyProviderResponse(t *testing.T) {
	mock := &testutil.MockEmbedder{Empty: true}
	client := New(mock, 768, log.NewNop())

	if _, err := client.Embed(context.Background(), "text", IntentQuery); err == nil {
		t.Fatal("expected error for empty provider response")
	}
}
