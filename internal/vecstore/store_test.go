package vecstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pelican0/pelican/internal/log"
)

// Validation failures are rejected before any connection is used, so these
// tests run against a Store with no pool.

func TestValidateName(t *testing.T) {
	valid := []string{"gemini_vectors", "docs", "a", "corpus_v2"}
	for _, name := range valid {
		if err := validateName(name); err != nil {
			t.Errorf("validateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{
		"",
		"Docs",             // uppercase
		"9docs",            // leading digit
		"_docs",            // leading underscore
		"docs-v2",          // hyphen
		"docs; DROP TABLE", // injection attempt
		"my.collection",    // dot
		strings.Repeat("a", 64),
	}
	for _, name := range invalid {
		err := validateName(name)
		if !errors.Is(err, ErrInvalidCollection) {
			t.Errorf("validateName(%q) = %v, want ErrInvalidCollection", name, err)
		}
	}
}

func TestCreateOrReplace_RejectsBadInput(t *testing.T) {
	s := New(nil, log.NewNop())
	ctx := context.Background()

	if err := s.CreateOrReplace(ctx, "Bad Name", 768, MetricCosine); !errors.Is(err, ErrInvalidCollection) {
		t.Errorf("bad name: got %v, want ErrInvalidCollection", err)
	}
	if err := s.CreateOrReplace(ctx, "docs", 0, MetricCosine); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("zero dimension: got %v, want ErrDimensionMismatch", err)
	}
	if err := s.CreateOrReplace(ctx, "docs", 768, Metric("euclidean")); err == nil {
		t.Error("unsupported metric: got nil, want error")
	}
}

func TestUpsert_RejectsBadName(t *testing.T) {
	s := New(nil, log.NewNop())

	err := s.Upsert(context.Background(), "Bad Name", []Point{{ID: 1, Vector: []float32{1}}})
	if !errors.Is(err, ErrInvalidCollection) {
		t.Errorf("got %v, want ErrInvalidCollection", err)
	}
}

func TestUpsert_EmptyPointsIsNoop(t *testing.T) {
	s := New(nil, log.NewNop())

	// No registry lookup, no writes.
	if err := s.Upsert(context.Background(), "docs", nil); err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

func TestSearch_RejectsBadInput(t *testing.T) {
	s := New(nil, log.NewNop())
	ctx := context.Background()

	if _, err := s.Search(ctx, "Bad Name", []float32{1}, 3, 128); !errors.Is(err, ErrInvalidCollection) {
		t.Errorf("bad name: got %v, want ErrInvalidCollection", err)
	}
	if _, err := s.Search(ctx, "docs", []float32{1}, 0, 128); err == nil {
		t.Error("k=0: got nil, want error")
	}
}

func TestCount_RejectsBadName(t *testing.T) {
	s := New(nil, log.NewNop())

	if _, err := s.Count(context.Background(), "Bad Name"); !errors.Is(err, ErrInvalidCollection) {
		t.Errorf("got %v, want ErrInvalidCollection", err)
	}
}
