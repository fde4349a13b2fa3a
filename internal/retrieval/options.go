// Package retrieval ranks knowledge documents against a question's intent.
package retrieval

import "github.com/ziadkadry99/interlingua/internal/knowledge"

// DefaultMaxResults is used when Options.MaxResults is not positive.
const DefaultMaxResults = 5

// Options tune one retrieval call.
type Options struct {
	MaxResults                int
	IncludeRelatedDisciplines bool
	PreferHighConfidence      bool
	// MinConfidence drops documents ranked below it. Empty means low.
	MinConfidence knowledge.Confidence
	// Contexts are situational labels (formal, casual, ...) to reward.
	Contexts []string
}

// DefaultOptions returns the options used when the caller has no preference.
func DefaultOptions() Options {
	return Options{
		MaxResults:                DefaultMaxResults,
		IncludeRelatedDisciplines: true,
		PreferHighConfidence:      true,
		MinConfidence:             knowledge.Low,
	}
}

func (o Options) maxResults() int {
	if o.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return o.MaxResults
}

// Weights are the scoring constants. Additive weights must keep the order
// Discipline > Subfield > Culture > Context, Concept.
type Weights struct {
	Discipline float64
	Subfield   float64
	Culture    float64
	Context    float64
	Concept    float64
	// Lexical is added per question word found in the document text.
	Lexical float64
	// Semantic scales the similarity reported by a SemanticIndex.
	Semantic float64

	ConfidenceBonus map[knowledge.Confidence]float64
	SourceTypeBonus map[knowledge.SourceType]float64
}

// DefaultWeights returns the reference weights.
func DefaultWeights() Weights {
	return Weights{
		Discipline: 3.0,
		Subfield:   2.5,
		Culture:    2.0,
		Context:    1.5,
		Concept:    1.0,
		Lexical:    0.3,
		Semantic:   2.0,
		ConfidenceBonus: map[knowledge.Confidence]float64{
			knowledge.High:   1.5,
			knowledge.Medium: 1.0,
			knowledge.Low:    0.5,
		},
		SourceTypeBonus: map[knowledge.SourceType]float64{
			knowledge.Ethnography: 1.4,
			knowledge.Journal:     1.3,
			knowledge.Book:        1.2,
			knowledge.Analysis:    1.0,
			knowledge.FewShot:     0.8,
		},
	}
}
