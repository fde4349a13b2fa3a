package retrieval

import (
	"slices"
	"strings"
	"unicode"

	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
)

// ScoredDocument pairs a document with its retrieval score. Scores are only
// comparable within one retrieval call.
type ScoredDocument struct {
	Document knowledge.Document `json:"document"`
	Score    float64            `json:"score"`
}

// Score computes the additive match score of doc and then applies the
// confidence and source-type multipliers. semantic is the similarity
// reported by a SemanticIndex, or 0.
func Score(doc knowledge.Document, query string, in intent.Intent, opts Options, w Weights, semantic float64) float64 {
	var score float64

	if slices.Contains(doc.Discipline, in.PrimaryDiscipline) {
		score += w.Discipline
	}
	if opts.IncludeRelatedDisciplines {
		for _, d := range in.SecondaryDisciplines {
			if slices.Contains(doc.Discipline, d) {
				score += 0.5 * w.Discipline
			}
		}
	}

	for _, sf := range in.Subfields {
		if slices.Contains(doc.Subfield, sf) {
			score += w.Subfield
		}
	}

	docCultures := lowerAll(doc.Culture)
	for _, c := range in.CulturesInvolved {
		if cultureMatches(strings.ToLower(c), docCultures) {
			score += w.Culture
		}
	}

	if len(opts.Contexts) > 0 {
		docContexts := lowerAll(doc.Context)
		for _, c := range opts.Contexts {
			if slices.Contains(docContexts, strings.ToLower(strings.TrimSpace(c))) {
				score += w.Context
			}
		}
	}

	text := strings.ToLower(doc.Text)
	related := lowerAll(doc.RelatedConcepts)
	for _, concept := range in.KeyConcepts {
		concept = strings.ToLower(strings.TrimSpace(concept))
		if concept == "" {
			continue
		}
		if strings.Contains(text, concept) {
			score += w.Concept
		}
		if anyContains(related, concept) {
			score += 0.5 * w.Concept
		}
	}

	for _, word := range queryWords(query) {
		if strings.Contains(text, word) {
			score += w.Lexical
		}
	}

	if semantic > 0 {
		score += w.Semantic * semantic
	}

	if opts.PreferHighConfidence {
		if bonus, ok := w.ConfidenceBonus[doc.Confidence]; ok {
			score *= bonus
		}
	}
	if bonus, ok := w.SourceTypeBonus[doc.SourceType]; ok {
		score *= bonus
	}
	return score
}

// cultureMatches reports a case-insensitive substring match in either
// direction, so "japan" matches "japanese".
func cultureMatches(c string, docCultures []string) bool {
	if c == "" {
		return false
	}
	for _, dc := range docCultures {
		if strings.Contains(dc, c) || (dc != "" && strings.Contains(c, dc)) {
			return true
		}
	}
	return false
}

// queryWords returns the distinct lower-cased words of query longer than
// three characters.
func queryWords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, f := range fields {
		if len([]rune(f)) > 3 && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func anyContains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
