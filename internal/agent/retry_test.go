package agent

import (
	"errors"
	"testing"
)

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultRetryConfig()

	if cfg.MaxRetries <= 0 {
		t.Errorf("MaxRetries should be positive, got %d", cfg.MaxRetries)
	}
	if cfg.InitialInterval <= 0 {
		t.Errorf("InitialInterval should be positive, got %v", cfg.InitialInterval)
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		t.Error("MaxInterval should be >= InitialInterval")
	}
}

func TestRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"rate limit error", errors.New("rate limit exceeded"), true},
		{"quota exceeded error", errors.New("quota exceeded for project"), true},
		{"429 status code", errors.New("HTTP 429: Too Many Requests"), true},
		{"500 server error", errors.New("HTTP 500 Internal Server Error"), true},
		{"503 unavailable", errors.New("503 Service Unavailable"), true},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"timeout error", errors.New("request timeout"), true},
		{"case insensitive", errors.New("RATE LIMIT reached"), true},
		{"invalid API key", errors.New("invalid API key"), false},
		{"400 bad request", errors.New("HTTP 400 Bad Request"), false},
		{"403 forbidden", errors.New("HTTP 403 Forbidden"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := retryableError(tt.err); got != tt.expected {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	t.Parallel()

	if containsAny("", "foo") {
		t.Error("empty string should match nothing")
	}
	if containsAny("foo bar") {
		t.Error("empty substring list should match nothing")
	}
	if !containsAny("FOO BAR", "foo") {
		t.Error("matching should be case-insensitive")
	}
	if containsAny("foo bar", "qux", "quux") {
		t.Error("unrelated substrings should not match")
	}
}
