package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/llm"
	"github.com/ziadkadry99/interlingua/internal/llm/llmtest"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
	"github.com/ziadkadry99/interlingua/internal/retrieval"
)

const articleJSON = `{
  "intro": {"text": "A pantun pairs imagery with meaning."},
  "sections": [{"title": "Form", "paragraph": "Four lines rhyme ABAB.", "bullets": []}],
  "conclusion": {"text": "Its use varies by region."}
}`

func newTestServer(t *testing.T, respond func(llm.CompletionRequest) (string, error)) (*Server, *llmtest.MockProvider) {
	t.Helper()
	store, err := knowledge.Sample()
	require.NoError(t, err)
	retr := retrieval.New(store)

	mock := llmtest.New()
	mock.Respond = respond
	p, err := pipeline.New(pipeline.Deps{Provider: mock, Retriever: retr}, pipeline.DefaultConfig())
	require.NoError(t, err)

	return NewServer(Deps{
		Asker:      p,
		Searcher:   retr,
		Knowledge:  store,
		RunOptions: pipeline.RunOptions{IncludeReferences: true},
		Retrieval:  retrieval.DefaultOptions(),
	}), mock
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	for _, tool := range []mcp.Tool{askQuestionTool, searchKnowledgeTool, getDocumentTool, listDocumentsTool} {
		assert.NotEmpty(t, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	assert.Equal(t, "ask_question", askQuestionTool.Name)
	assert.Equal(t, "search_knowledge", searchKnowledgeTool.Name)
	assert.Contains(t, askQuestionTool.InputSchema.Required, "question")
}

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	require.NotNil(t, srv.mcp)
}

func TestHandleAskQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("answer with references", func(t *testing.T) {
		srv, mock := newTestServer(t, func(llm.CompletionRequest) (string, error) { return articleJSON, nil })
		res, err := srv.handleAskQuestion(ctx, callRequest(map[string]any{"question": "How is a Malay pantun built?"}))
		require.NoError(t, err)
		require.False(t, res.IsError, resultText(t, res))

		text := resultText(t, res)
		assert.Contains(t, text, "## Form")
		assert.Contains(t, text, "## References")
		assert.Equal(t, 1, mock.CallCount(), "auditor is off by default here")
	})

	t.Run("auditor and references switched by arguments", func(t *testing.T) {
		srv, mock := newTestServer(t, func(llm.CompletionRequest) (string, error) { return articleJSON, nil })
		res, err := srv.handleAskQuestion(ctx, callRequest(map[string]any{
			"question":           "How is a Malay pantun built?",
			"enable_auditor":     true,
			"include_references": false,
		}))
		require.NoError(t, err)
		require.False(t, res.IsError)
		assert.NotContains(t, resultText(t, res), "## References")
		assert.Equal(t, 2, mock.CallCount())
	})

	t.Run("generation failure is a tool error", func(t *testing.T) {
		srv, _ := newTestServer(t, func(llm.CompletionRequest) (string, error) { return "", errors.New("offline") })
		res, err := srv.handleAskQuestion(ctx, callRequest(map[string]any{"question": "What is a haiku?"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "offline")
	})

	t.Run("missing question", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)
		res, err := srv.handleAskQuestion(ctx, callRequest(map[string]any{}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("no provider", func(t *testing.T) {
		store, err := knowledge.Sample()
		require.NoError(t, err)
		srv := NewServer(Deps{Searcher: retrieval.New(store), Knowledge: store})
		res, err := srv.handleAskQuestion(ctx, callRequest(map[string]any{"question": "q"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestHandleSearchKnowledge(t *testing.T) {
	srv, mock := newTestServer(t, nil)
	ctx := context.Background()

	res, err := srv.handleSearchKnowledge(ctx, callRequest(map[string]any{
		"question":    "Why is Japanese keigo so layered?",
		"max_results": 2,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "ling-ja-keigo")
	assert.LessOrEqual(t, strings.Count(text, "\n--- "), 2)
	assert.Zero(t, mock.CallCount())

	res, err = srv.handleSearchKnowledge(ctx, callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleGetDocument(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ctx := context.Background()

	res, err := srv.handleGetDocument(ctx, callRequest(map[string]any{"id": "lit-haiku-seasonal"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "# lit-haiku-seasonal")
	assert.Contains(t, text, "Disciplines: literature")

	res, err = srv.handleGetDocument(ctx, callRequest(map[string]any{"id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleListDocuments(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ctx := context.Background()

	res, err := srv.handleListDocuments(ctx, callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "12 document(s)")

	res, err = srv.handleListDocuments(ctx, callRequest(map[string]any{"discipline": "literature"}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "lit-pantun")
	assert.NotContains(t, text, "ling-ja-keigo")

	res, err = srv.handleListDocuments(ctx, callRequest(map[string]any{"discipline": "physics"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
