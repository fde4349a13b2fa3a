package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
	Delay    time.Duration
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func userRequest(content string) CompletionRequest {
	return CompletionRequest{Model: "test-model", Messages: []Message{User(content)}}
}

// --- Tests ---

func TestMockProviderRecordsCalls(t *testing.T) {
	mock := NewMockProvider("test")

	resp, err := mock.Complete(context.Background(), userRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "test-model", mock.Calls[0].Model)
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	for _, p := range []string{"anthropic", "openai"} {
		_, err := NewProvider(p, "some-model")
		assert.Error(t, err, "provider %q with missing API key", p)
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider("unknown", "some-model")
	assert.Error(t, err)
}

func TestFactoryCreatesOllamaWithDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	provider, err := NewProvider("ollama", "llama3")
	require.NoError(t, err)

	ollamaP, ok := provider.(*OllamaProvider)
	require.True(t, ok, "expected *OllamaProvider")
	assert.Equal(t, "http://localhost:11434", ollamaP.baseURL)
	assert.Equal(t, "ollama", provider.Name())
}

func TestFactoryCreatesKeyedProviders(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-key")

	for _, name := range []string{"anthropic", "openai"} {
		provider, err := NewProvider(name, "m")
		require.NoError(t, err)
		assert.Equal(t, name, provider.Name())
	}
}

func TestOpenAIComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("key", "gpt-4o", srv.URL)
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{System("sys"), User("hi")},
		Temperature: 0.2,
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Content)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, "stop", resp.FinishReason)

	assert.Equal(t, "gpt-4o", got["model"])
	format, ok := got["response_format"].(map[string]any)
	require.True(t, ok, "json mode should set response_format")
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIStreamDeliversDeltasInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"## Intro", "\n\nSome ", "text."} {
			chunk, _ := json.Marshal(map[string]any{
				"id": "s1", "object": "chat.completion.chunk", "model": "gpt-4o",
				"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": part}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenAIProvider("key", "gpt-4o", srv.URL)
	var deltas []string
	resp, err := StreamOrComplete(context.Background(), p, userRequest("q"), func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"## Intro", "\n\nSome ", "text."}, deltas)
	assert.Equal(t, "## Intro\n\nSome text.", resp.Content)
}

func TestStreamOrCompleteFallsBackToComplete(t *testing.T) {
	mock := NewMockProvider("plain")
	var deltas []string
	resp, err := StreamOrComplete(context.Background(), mock, userRequest("q"), func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mock response"}, deltas)
	assert.Equal(t, "mock response", resp.Content)

	_, err = StreamOrComplete(context.Background(), mock, userRequest("q"), nil)
	assert.NoError(t, err)
}

func TestAnthropicCompleteMovesSystemPromptOutOfBand(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"hello"}],"model":"claude","stop_reason":"end_turn",
			"usage":{"input_tokens":5,"output_tokens":1}}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider("key", "claude", srv.URL)
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{System("be careful"), User("hi")},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 4096, got.MaxTokens)
	assert.True(t, strings.HasPrefix(got.System, "be careful"))
	assert.Contains(t, got.System, jsonOnlyInstruction)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestAnthropicSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer srv.Close()

	_, err := NewAnthropicProvider("key", "claude", srv.URL).Complete(context.Background(), userRequest("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow down")
}

func TestOllamaComplete(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"{}"},"model":"llama3","done":true,
			"done_reason":"stop","prompt_eval_count":7,"eval_count":2}`)
	}))
	defer srv.Close()

	resp, err := NewOllamaProvider(srv.URL, "llama3").Complete(context.Background(), CompletionRequest{
		Messages: []Message{User("hi")},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Content)
	assert.Equal(t, "json", got.Format)
	assert.Equal(t, "llama3", got.Model)
}

func TestOllamaEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"  "},"done":true}`)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "llama3").Complete(context.Background(), userRequest("hi"))
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), userRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
	assert.Equal(t, "test", rl.Name())
}

func TestRateLimiterDisabled(t *testing.T) {
	mock := NewMockProvider("test")
	assert.Same(t, mock, NewRateLimitedProvider(mock, 0))
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	// Allow only 2 requests per minute.
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	for i := 0; i < 2; i++ {
		_, err := rl.Complete(ctx, userRequest("hello"))
		require.NoError(t, err, "request %d", i)
	}

	// Third should block and eventually fail due to context timeout.
	_, err := rl.Complete(ctx, userRequest("hello"))
	assert.Error(t, err)
}

func TestWithTimeoutCancelsSlowCalls(t *testing.T) {
	mock := NewMockProvider("slow")
	mock.Delay = time.Second
	p := WithTimeout(mock, 20*time.Millisecond)

	_, err := p.Complete(context.Background(), userRequest("hi"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	_, err = StreamOrComplete(context.Background(), p, userRequest("hi"), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeoutDisabled(t *testing.T) {
	mock := NewMockProvider("test")
	assert.Same(t, mock, WithTimeout(mock, 0))
}

func TestEstimateCost(t *testing.T) {
	assert.Greater(t, EstimateCost("gpt-4o", 1000, 500), 0.0)
	assert.Zero(t, EstimateCost("unknown-model", 1000, 500))
	// claude-sonnet-4-5: $3/1M input, $15/1M output
	assert.InDelta(t, 18.0, EstimateCost("claude-sonnet-4-5-20250929", 1_000_000, 1_000_000), 0.01)
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"hello world!!", 3},
		{"a longer piece of text that has more characters", 11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), "EstimateTokens(%q)", tt.text)
	}
	assert.Equal(t, 2, estimateMessagesTokens([]Message{System("abcd"), User("efgh")}))
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"```json\n{\"a\":1}", `{"a":1}`},
		{"```", "```"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFence(tt.in), "StripCodeFence(%q)", tt.in)
	}
}
