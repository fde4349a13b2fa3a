package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
)

// Mode names the generation strategy that produced a result.
type Mode string

const (
	// ModeStructured asks for a JSON article.
	ModeStructured Mode = "structured"
	// ModeLegacy asks for Markdown and streams it.
	ModeLegacy Mode = "legacy"
)

// Result is everything one run produces. Article is always schema-valid.
type Result struct {
	RequestID string          `json:"request_id"`
	Question  string          `json:"question"`
	Article   article.Article `json:"article"`
	Markdown  string          `json:"markdown"`
	Intent    intent.Intent   `json:"intent"`
	Sources   []string        `json:"sources"`
	// DocumentIDs lists the retrieved documents, best first.
	DocumentIDs []string `json:"document_ids"`

	Mode           Mode          `json:"mode"`
	IntentFallback bool          `json:"intent_fallback"`
	Repaired       bool          `json:"repaired"`
	Audited        bool          `json:"audited"`
	Duration       time.Duration `json:"duration_ns"`
	CreatedAt      time.Time     `json:"created_at"`
}

// SourceSummary formats a document as "<source> — <disciplines> · <cultures>".
// The culture part is omitted for documents without culture labels.
func SourceSummary(d knowledge.Document) string {
	disciplines := make([]string, len(d.Discipline))
	for i, disc := range d.Discipline {
		disciplines[i] = string(disc)
	}
	s := fmt.Sprintf("%s — %s", d.Source, strings.Join(disciplines, ", "))
	if len(d.Culture) > 0 {
		s += " · " + strings.Join(d.Culture, ", ")
	}
	return s
}
