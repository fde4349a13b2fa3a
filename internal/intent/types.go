// Package intent turns a free-text question into the structured descriptor
// that drives retrieval and context assembly.
package intent

import (
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
)

// QueryType is the kind of answer the question asks for.
type QueryType string

const (
	Translation         QueryType = "translation"
	ErrorAnalysis       QueryType = "error_analysis"
	CulturalExplanation QueryType = "cultural_explanation"
	Comparative         QueryType = "comparative"
	Interpretive        QueryType = "interpretive"
	General             QueryType = "general"
)

// PlaceholderCulture stands in when no culture can be identified.
const PlaceholderCulture = "General"

// Intent is the structured reading of one question.
type Intent struct {
	CulturesInvolved          []string               `json:"cultures_involved" validate:"required,min=1,dive,required"`
	PrimaryDiscipline         knowledge.Discipline   `json:"primary_discipline" validate:"required,oneof=linguistics literature cultural_studies"`
	SecondaryDisciplines      []knowledge.Discipline `json:"secondary_disciplines" validate:"dive,oneof=linguistics literature cultural_studies"`
	Subfields                 []string               `json:"subfields"`
	SocialDomain              string                 `json:"social_domain"`
	KeyConcepts               []string               `json:"key_concepts"`
	InterpretiveFrame         string                 `json:"interpretive_frame"`
	QueryType                 QueryType              `json:"query_type" validate:"required,oneof=translation error_analysis cultural_explanation comparative interpretive general"`
	RequiresComparison        bool                   `json:"requires_comparison"`
	RequiresHistoricalContext bool                   `json:"requires_historical_context"`
	// AnalysisConfidence is diagnostic only; nothing filters on it.
	AnalysisConfidence knowledge.Confidence `json:"analysis_confidence" validate:"required,oneof=high medium low"`
}

var intentValidate = validator.New()

// Validate checks the required fields and closed vocabularies.
func (i Intent) Validate() error {
	return intentValidate.Struct(i)
}

// Clone returns a copy that shares no slices with i.
func (i Intent) Clone() Intent {
	i.CulturesInvolved = slices.Clone(i.CulturesInvolved)
	i.SecondaryDisciplines = slices.Clone(i.SecondaryDisciplines)
	i.Subfields = slices.Clone(i.Subfields)
	i.KeyConcepts = slices.Clone(i.KeyConcepts)
	return i
}

// HasPlaceholderCulture reports whether no concrete culture was identified.
func (i Intent) HasPlaceholderCulture() bool {
	return len(i.CulturesInvolved) == 1 && i.CulturesInvolved[0] == PlaceholderCulture
}

// normalize tidies model output before validation: enum values are
// lower-cased, blanks dropped, and optional enums defaulted.
func (i *Intent) normalize() {
	i.PrimaryDiscipline = normalizeDiscipline(string(i.PrimaryDiscipline))

	var secondary []knowledge.Discipline
	for _, d := range i.SecondaryDisciplines {
		nd := normalizeDiscipline(string(d))
		if nd.Valid() && nd != i.PrimaryDiscipline && !slices.Contains(secondary, nd) {
			secondary = append(secondary, nd)
		}
	}
	i.SecondaryDisciplines = secondary

	i.CulturesInvolved = compactStrings(i.CulturesInvolved, strings.TrimSpace)
	i.KeyConcepts = compactStrings(i.KeyConcepts, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})

	var subs []string
	for _, s := range compactStrings(i.Subfields, normalizeToken) {
		if _, ok := knowledge.SubfieldFamily(s); ok {
			subs = append(subs, s)
		}
	}
	i.Subfields = subs

	i.QueryType = QueryType(normalizeToken(string(i.QueryType)))
	if i.QueryType == "" {
		i.QueryType = General
	}
	i.AnalysisConfidence = knowledge.Confidence(normalizeToken(string(i.AnalysisConfidence)))
	if i.AnalysisConfidence == "" {
		i.AnalysisConfidence = knowledge.Medium
	}
	i.SocialDomain = strings.TrimSpace(i.SocialDomain)
	i.InterpretiveFrame = strings.TrimSpace(i.InterpretiveFrame)
}

func normalizeDiscipline(s string) knowledge.Discipline {
	return knowledge.Discipline(normalizeToken(s))
}

// normalizeToken lower-cases s and joins words with underscores, so
// "Cultural Studies" becomes "cultural_studies".
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}

func compactStrings(in []string, norm func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = norm(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
