// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/ziadkadry99/interlingua/internal/llm"
)

// Step is one scripted reply. When Err is set it is returned instead of
// Content.
type Step struct {
	Content string
	Err     error
}

// MockProvider replays Steps in order and records every request. Once the
// script is exhausted, Fallback answers the remaining calls.
type MockProvider struct {
	mu       sync.Mutex
	ProvName string
	Steps    []Step
	Fallback Step
	// Respond, when set, overrides the script entirely.
	Respond func(req llm.CompletionRequest) (string, error)
	Calls   []llm.CompletionRequest
}

// New returns a mock that replays steps.
func New(steps ...Step) *MockProvider {
	return &MockProvider{ProvName: "mock", Steps: steps}
}

// Reply is shorthand for a successful step.
func Reply(content string) Step { return Step{Content: content} }

// Fail is shorthand for a failing step.
func Fail(err error) Step { return Step{Err: err} }

func (m *MockProvider) Name() string { return m.ProvName }

func (m *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	idx := len(m.Calls)
	m.Calls = append(m.Calls, req)
	respond := m.Respond
	step := m.Fallback
	if idx < len(m.Steps) {
		step = m.Steps[idx]
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := step.Content, step.Err
	if respond != nil {
		content, err = respond(req)
	}
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{
		Content:      content,
		InputTokens:  10,
		OutputTokens: llm.EstimateTokens(content),
		Model:        "mock-model",
		FinishReason: "stop",
	}, nil
}

// CallCount returns the number of requests seen so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Call returns the i-th recorded request.
func (m *MockProvider) Call(i int) llm.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[i]
}

// StreamingMock wraps a MockProvider and delivers each reply in fixed-size
// chunks through the llm.Streamer interface.
type StreamingMock struct {
	*MockProvider
	ChunkSize int
}

func (s *StreamingMock) Stream(ctx context.Context, req llm.CompletionRequest, onDelta func(string)) (*llm.CompletionResponse, error) {
	resp, err := s.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	size := s.ChunkSize
	if size <= 0 {
		size = 8
	}
	runes := []rune(resp.Content)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		onDelta(string(runes[start:end]))
	}
	return resp, nil
}
