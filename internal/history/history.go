// Package history records answered questions in SQLite.
package history

import (
	"time"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/intent"
)

// Entry is one recorded answer.
type Entry struct {
	ID                string          `json:"id"`
	RequestID         string          `json:"request_id"`
	Question          string          `json:"question"`
	Markdown          string          `json:"markdown"`
	Article           article.Article `json:"article"`
	Intent            intent.Intent   `json:"intent"`
	PrimaryDiscipline string          `json:"primary_discipline"`
	QueryType         string          `json:"query_type"`
	DocumentIDs       []string        `json:"document_ids"`
	Sources           []string        `json:"sources"`
	Mode              string          `json:"mode"`
	IntentFallback    bool            `json:"intent_fallback"`
	Repaired          bool            `json:"repaired"`
	Audited           bool            `json:"audited"`
	Duration          time.Duration   `json:"duration_ns"`
	CreatedAt         time.Time       `json:"created_at"`
}

// QueryFilter controls which entries List returns.
type QueryFilter struct {
	Discipline string
	Mode       string
	// Contains matches a substring of the question.
	Contains string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}
