package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers that answer with a single JSON document.
type Client interface {
	CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error)
}

// Request is one structured-output prompt.
type Request struct {
	// Task names the capability for logs, e.g. "checklist.extract".
	Task   string
	System string
	Prompt string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// CompleteJSON returns ErrNotImplemented.
func (PlaceholderClient) CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotImplemented
}
