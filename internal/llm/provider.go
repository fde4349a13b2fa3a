package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any content.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Streamer is implemented by providers that can deliver a completion
// incrementally. onDelta is called for every chunk of content in order; the
// returned response carries the concatenated content.
type Streamer interface {
	Stream(ctx context.Context, req CompletionRequest, onDelta func(delta string)) (*CompletionResponse, error)
}

// StreamOrComplete streams the request when the provider supports it and
// falls back to a single Complete call otherwise. onDelta may be nil.
func StreamOrComplete(ctx context.Context, p Provider, req CompletionRequest, onDelta func(string)) (*CompletionResponse, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	if s, ok := p.(Streamer); ok {
		return s.Stream(ctx, req, onDelta)
	}
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	onDelta(resp.Content)
	return resp, nil
}
