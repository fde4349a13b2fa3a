// Package knowledge holds the immutable collection of interpretive documents
// that grounds every answer.
package knowledge

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// Discipline is the top-level academic category of a document or question.
type Discipline string

const (
	Linguistics     Discipline = "linguistics"
	Literature      Discipline = "literature"
	CulturalStudies Discipline = "cultural_studies"
)

// Disciplines lists every valid discipline in declaration order.
var Disciplines = []Discipline{Linguistics, Literature, CulturalStudies}

// Valid reports whether d is one of the known disciplines.
func (d Discipline) Valid() bool {
	return slices.Contains(Disciplines, d)
}

// Era classifies the period a document speaks about.
type Era string

const (
	Classical    Era = "classical"
	Modern       Era = "modern"
	Contemporary Era = "contemporary"
)

// Stance classifies how a document argues.
type Stance string

const (
	Descriptive  Stance = "descriptive"
	Prescriptive Stance = "prescriptive"
	Critical     Stance = "critical"
)

// Confidence is an ordinal trust level: low < medium < high.
type Confidence string

const (
	Low    Confidence = "low"
	Medium Confidence = "medium"
	High   Confidence = "high"
)

// Rank maps the confidence to its ordinal position. Unknown values rank 0.
func (c Confidence) Rank() int {
	switch c {
	case Low:
		return 1
	case Medium:
		return 2
	case High:
		return 3
	}
	return 0
}

// AtLeast reports whether c is at or above min.
func (c Confidence) AtLeast(min Confidence) bool {
	return c.Rank() >= min.Rank()
}

// SourceType records where a document's interpretation comes from.
type SourceType string

const (
	Ethnography SourceType = "ethnography"
	Book        SourceType = "book"
	Journal     SourceType = "journal"
	Analysis    SourceType = "analysis"
	FewShot     SourceType = "few_shot"
)

// subfields lists the valid subfields of each discipline family.
var subfields = map[Discipline][]string{
	Linguistics: {
		"pragmatics", "sociolinguistics", "semantics", "syntax",
		"phonology", "discourse_analysis", "translation_studies",
	},
	Literature: {
		"literary_criticism", "poetics", "narratology", "comparative_literature",
	},
	CulturalStudies: {
		"anthropology", "intercultural_communication", "ritual_studies", "media_studies",
	},
}

// Subfields returns the valid subfields of d.
func Subfields(d Discipline) []string {
	return slices.Clone(subfields[d])
}

// SubfieldFamily returns the discipline a subfield belongs to.
func SubfieldFamily(subfield string) (Discipline, bool) {
	for _, d := range Disciplines {
		if slices.Contains(subfields[d], subfield) {
			return d, true
		}
	}
	return "", false
}

// Document is one interpretive text with its classification metadata.
// Documents are validated once when a Store is built and never mutated
// afterwards.
type Document struct {
	ID              string       `yaml:"id" json:"id" validate:"required"`
	Text            string       `yaml:"text" json:"text" validate:"required"`
	Discipline      []Discipline `yaml:"discipline" json:"discipline" validate:"required,min=1,dive,oneof=linguistics literature cultural_studies"`
	Subfield        []string     `yaml:"subfield" json:"subfield,omitempty"`
	Culture         []string     `yaml:"culture" json:"culture,omitempty" validate:"dive,required"`
	Context         []string     `yaml:"context" json:"context,omitempty" validate:"dive,required"`
	Era             Era          `yaml:"era" json:"era" validate:"required,oneof=classical modern contemporary"`
	Stance          Stance       `yaml:"stance" json:"stance" validate:"required,oneof=descriptive prescriptive critical"`
	Confidence      Confidence   `yaml:"confidence" json:"confidence" validate:"required,oneof=high medium low"`
	SourceType      SourceType   `yaml:"source_type" json:"source_type" validate:"required,oneof=ethnography book journal analysis few_shot"`
	Source          string       `yaml:"source" json:"source" validate:"required"`
	RelatedConcepts []string     `yaml:"related_concepts" json:"related_concepts,omitempty"`
	Languages       []string     `yaml:"languages" json:"languages,omitempty"`
}

var documentValidate = validator.New()

// Validate checks the document against the closed vocabularies. Every
// subfield must belong to the family of one of the document's disciplines.
func (d Document) Validate() error {
	if err := documentValidate.Struct(d); err != nil {
		return err
	}
	for _, sf := range d.Subfield {
		family, ok := SubfieldFamily(sf)
		if !ok {
			return fmt.Errorf("unknown subfield %q", sf)
		}
		if !slices.Contains(d.Discipline, family) {
			return fmt.Errorf("subfield %q belongs to %s, which is not among the document's disciplines", sf, family)
		}
	}
	return nil
}

// PrimaryDiscipline is the first discipline tag.
func (d Document) PrimaryDiscipline() Discipline {
	if len(d.Discipline) == 0 {
		return ""
	}
	return d.Discipline[0]
}

// PrimaryCulture is the first culture label, or "" when there is none.
func (d Document) PrimaryCulture() string {
	if len(d.Culture) == 0 {
		return ""
	}
	return d.Culture[0]
}

// clone returns a copy that shares no slices with d.
func (d Document) clone() Document {
	d.Discipline = slices.Clone(d.Discipline)
	d.Subfield = slices.Clone(d.Subfield)
	d.Culture = slices.Clone(d.Culture)
	d.Context = slices.Clone(d.Context)
	d.RelatedConcepts = slices.Clone(d.RelatedConcepts)
	d.Languages = slices.Clone(d.Languages)
	return d
}

// DocumentError reports the first document that failed validation.
type DocumentError struct {
	ID    string
	Index int
	Err   error
}

func (e *DocumentError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("document #%d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("document %q: %v", e.ID, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
