// Package mcp exposes the question pipeline and the knowledge base as
// Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
	"github.com/ziadkadry99/interlingua/internal/retrieval"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Asker answers a question; *pipeline.Pipeline implements it.
type Asker interface {
	Run(ctx context.Context, question, conversation string, opts pipeline.RunOptions) (*pipeline.Result, error)
}

// Searcher ranks knowledge documents; *retrieval.Retriever implements it.
type Searcher interface {
	Search(ctx context.Context, query string, in intent.Intent, opts retrieval.Options) []retrieval.ScoredDocument
}

// Deps are the collaborators behind the tools. Asker may be nil, in which
// case ask_question reports that no model is configured.
type Deps struct {
	Asker      Asker
	Searcher   Searcher
	Knowledge  *knowledge.Store
	RunOptions pipeline.RunOptions
	Retrieval  retrieval.Options
}

// Server wraps an MCP server that exposes the interlingua tools.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"interlingua",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(askQuestionTool, s.handleAskQuestion)
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	s.mcp.AddTool(getDocumentTool, s.handleGetDocument)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
