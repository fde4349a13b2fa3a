package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
	"github.com/ziadkadry99/interlingua/internal/retrieval"
)

func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}
	if s.deps.Asker == nil {
		return mcp.NewToolResultError("No LLM provider is configured. Run `interlingua init` first."), nil
	}

	opts := s.deps.RunOptions
	opts.EnableAuditor = request.GetBool("enable_auditor", opts.EnableAuditor)
	opts.IncludeReferences = request.GetBool("include_references", opts.IncludeReferences)

	res, err := s.deps.Asker.Run(ctx, question, request.GetString("conversation", ""), opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatAnswer(res)), nil
}

func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	opts := s.deps.Retrieval
	if n := request.GetInt("max_results", 0); n > 0 {
		opts.MaxResults = n
	}

	in := intent.Heuristic(question)
	results := s.deps.Searcher.Search(ctx, question, in, opts)
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching documents found."), nil
	}
	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	doc, ok := s.deps.Knowledge.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No document with id %q.", id)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", doc.ID)
	fmt.Fprintf(&sb, "Source: %s\n", doc.Source)
	fmt.Fprintf(&sb, "Disciplines: %s\n", joinDisciplines(doc.Discipline))
	if len(doc.Subfield) > 0 {
		fmt.Fprintf(&sb, "Subfields: %s\n", strings.Join(doc.Subfield, ", "))
	}
	if len(doc.Culture) > 0 {
		fmt.Fprintf(&sb, "Cultures: %s\n", strings.Join(doc.Culture, ", "))
	}
	fmt.Fprintf(&sb, "Confidence: %s\n\n", doc.Confidence)
	sb.WriteString(doc.Text)
	sb.WriteString("\n")
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	discipline := knowledge.Discipline(request.GetString("discipline", ""))
	if discipline != "" && !discipline.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown discipline %q", discipline)), nil
	}

	var sb strings.Builder
	n := 0
	for _, d := range s.deps.Knowledge.All() {
		if discipline != "" && !containsDiscipline(d.Discipline, discipline) {
			continue
		}
		n++
		fmt.Fprintf(&sb, "- %s: %s\n", d.ID, pipeline.SourceSummary(d))
	}
	if n == 0 {
		return mcp.NewToolResultText("No documents found."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d document(s):\n%s", n, sb.String())), nil
}

func formatAnswer(res *pipeline.Result) string {
	var sb strings.Builder
	sb.WriteString(res.Markdown)
	if len(res.Sources) > 0 {
		sb.WriteString("\n")
		sb.WriteString(article.RenderSources(res.Sources))
	}
	return sb.String()
}

// formatSearchResults renders ranked documents for AI agent consumption.
func formatSearchResults(results []retrieval.ScoredDocument) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d document(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- %d. %s (score %.2f) ---\n", i+1, r.Document.ID, r.Score)
		fmt.Fprintf(&sb, "Source: %s\n", pipeline.SourceSummary(r.Document))
		fmt.Fprintf(&sb, "Confidence: %s\n\n", r.Document.Confidence)
		sb.WriteString(r.Document.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func joinDisciplines(ds []knowledge.Discipline) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

func containsDiscipline(ds []knowledge.Discipline, d knowledge.Discipline) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}
