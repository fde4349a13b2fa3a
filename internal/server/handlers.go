package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
)

type askRequest struct {
	Question          string `json:"question"`
	Conversation      string `json:"conversation"`
	EnableAuditor     *bool  `json:"enable_auditor"`
	IncludeReferences *bool  `json:"include_references"`
	// Format "html" adds the rendered article as HTML.
	Format string `json:"format"`
}

type askResponse struct {
	*pipeline.Result
	HTML string `json:"html,omitempty"`
}

type searchRequest struct {
	Question     string `json:"question"`
	Conversation string `json:"conversation"`
	MaxResults   int    `json:"max_results"`
}

type searchHit struct {
	ID          string                 `json:"id"`
	Score       float64                `json:"score"`
	Source      string                 `json:"source"`
	Disciplines []knowledge.Discipline `json:"disciplines"`
	Cultures    []string               `json:"cultures"`
	Confidence  knowledge.Confidence   `json:"confidence"`
	Summary     string                 `json:"summary"`
}

type searchResponse struct {
	Intent  intent.Intent `json:"intent"`
	Results []searchHit   `json:"results"`
}

type documentsResponse struct {
	Count        int                          `json:"count"`
	ByDiscipline map[knowledge.Discipline]int `json:"by_discipline"`
	ByCulture    map[string]int               `json:"by_culture"`
	Documents    []documentSummary            `json:"documents"`
}

type documentSummary struct {
	ID          string                 `json:"id"`
	Disciplines []knowledge.Discipline `json:"disciplines"`
	Cultures    []string               `json:"cultures"`
	Confidence  knowledge.Confidence   `json:"confidence"`
	SourceType  knowledge.SourceType   `json:"source_type"`
	Source      string                 `json:"source"`
}

func (s *Server) runOptions(req askRequest) pipeline.RunOptions {
	opts := s.deps.RunOptions
	if req.EnableAuditor != nil {
		opts.EnableAuditor = *req.EnableAuditor
	}
	if req.IncludeReferences != nil {
		opts.IncludeReferences = *req.IncludeReferences
	}
	return opts
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.deps.Asker == nil {
		writeError(w, http.StatusServiceUnavailable, "question pipeline not configured")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	res, err := s.deps.Asker.Run(r.Context(), req.Question, req.Conversation, s.runOptions(req))
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrGenerationFailed) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}

	resp := askResponse{Result: res}
	if req.Format == "html" {
		html, err := article.MarkdownToHTML(res.Markdown)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "rendering html: "+err.Error())
			return
		}
		resp.HTML = html
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "retriever not configured")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	var in intent.Intent
	if s.deps.Analyzer != nil {
		in = s.deps.Analyzer.Analyze(r.Context(), req.Question, req.Conversation)
	} else {
		in = intent.Heuristic(req.Question)
	}

	opts := s.deps.Retrieval
	if req.MaxResults > 0 {
		opts.MaxResults = req.MaxResults
	}

	scored := s.deps.Searcher.Search(r.Context(), req.Question, in, opts)
	resp := searchResponse{Intent: in, Results: make([]searchHit, len(scored))}
	for i, sd := range scored {
		resp.Results[i] = searchHit{
			ID:          sd.Document.ID,
			Score:       sd.Score,
			Source:      sd.Document.Source,
			Disciplines: sd.Document.Discipline,
			Cultures:    sd.Document.Culture,
			Confidence:  sd.Document.Confidence,
			Summary:     pipeline.SourceSummary(sd.Document),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.deps.Knowledge == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge base not configured")
		return
	}

	discipline := knowledge.Discipline(r.URL.Query().Get("discipline"))
	stats := s.deps.Knowledge.Stats()
	resp := documentsResponse{
		Count:        stats.Documents,
		ByDiscipline: stats.ByDiscipline,
		ByCulture:    stats.ByCulture,
		Documents:    []documentSummary{},
	}
	for _, d := range s.deps.Knowledge.All() {
		if discipline != "" && !hasDiscipline(d, discipline) {
			continue
		}
		resp.Documents = append(resp.Documents, documentSummary{
			ID:          d.ID,
			Disciplines: d.Discipline,
			Cultures:    d.Culture,
			Confidence:  d.Confidence,
			SourceType:  d.SourceType,
			Source:      d.Source,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.deps.Knowledge == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge base not configured")
		return
	}
	doc, ok := s.deps.Knowledge.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func hasDiscipline(d knowledge.Document, disc knowledge.Discipline) bool {
	for _, x := range d.Discipline {
		if x == disc {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
