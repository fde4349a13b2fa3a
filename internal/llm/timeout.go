package llm

import (
	"context"
	"time"
)

// TimeoutProvider bounds every call to the wrapped provider. A call that
// exceeds the deadline fails with context.DeadlineExceeded like any other
// provider error.
type TimeoutProvider struct {
	provider Provider
	timeout  time.Duration
}

// WithTimeout wraps provider so each Complete or Stream call is cancelled
// after d. A non-positive d returns the provider unchanged.
func WithTimeout(provider Provider, d time.Duration) Provider {
	if d <= 0 {
		return provider
	}
	return &TimeoutProvider{provider: provider, timeout: d}
}

func (t *TimeoutProvider) Name() string {
	return t.provider.Name()
}

func (t *TimeoutProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.provider.Complete(ctx, req)
}

func (t *TimeoutProvider) Stream(ctx context.Context, req CompletionRequest, onDelta func(string)) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return StreamOrComplete(ctx, t.provider, req, onDelta)
}
