package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for match analysis.
type Client interface {
	Analyze(ctx context.Context, input MatchInput) (json.RawMessage, error)
}

// MatchInput captures the inputs for a résumé-to-job match analysis.
type MatchInput struct {
	ResumeText     string
	JobDescription string
}

// ErrTimeout marks an upstream completion call that exceeded its deadline.
var ErrTimeout = errors.New("llm request timed out")

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Analyze returns ErrNotConfigured.
func (PlaceholderClient) Analyze(ctx context.Context, input MatchInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}
