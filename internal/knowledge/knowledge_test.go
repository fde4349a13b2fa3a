package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDoc(id string) Document {
	return Document{
		ID:         id,
		Text:       "Politeness varies across speech communities.",
		Discipline: []Discipline{Linguistics},
		Subfield:   []string{"pragmatics"},
		Culture:    []string{"Japanese"},
		Era:        Contemporary,
		Stance:     Descriptive,
		Confidence: High,
		SourceType: Book,
		Source:     "Test source",
	}
}

func TestSampleCorpusLoads(t *testing.T) {
	store, err := Sample()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, store.Len(), 10)

	var both bool
	for _, d := range store.All() {
		text := strings.ToLower(d.Text)
		if strings.Contains(text, "politeness") && strings.Contains(text, "indirectness") {
			both = true
		}
	}
	assert.True(t, both, "sample corpus should contain a politeness/indirectness document")
}

func TestNewRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"no discipline", func(d *Document) { d.Discipline = nil }},
		{"unknown discipline", func(d *Document) { d.Discipline = []Discipline{"physics"} }},
		{"unknown confidence", func(d *Document) { d.Confidence = "certain" }},
		{"unknown stance", func(d *Document) { d.Stance = "neutral" }},
		{"unknown era", func(d *Document) { d.Era = "future" }},
		{"unknown source type", func(d *Document) { d.SourceType = "blog" }},
		{"missing source", func(d *Document) { d.Source = "" }},
		{"unknown subfield", func(d *Document) { d.Subfield = []string{"astrology"} }},
		{"subfield outside family", func(d *Document) { d.Subfield = []string{"poetics"} }},
		{"empty culture label", func(d *Document) { d.Culture = []string{""} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := validDoc("bad")
			tt.mutate(&bad)

			_, err := New([]Document{validDoc("ok"), bad, validDoc("never-reached")})
			require.Error(t, err)

			var docErr *DocumentError
			require.True(t, errors.As(err, &docErr))
			assert.Equal(t, "bad", docErr.ID)
			assert.Equal(t, 1, docErr.Index)
		})
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New([]Document{validDoc("a"), validDoc("a")})
	var docErr *DocumentError
	require.ErrorAs(t, err, &docErr)
	assert.Contains(t, docErr.Error(), "duplicate")
}

func TestStoreIsImmutable(t *testing.T) {
	input := []Document{validDoc("a")}
	store, err := New(input)
	require.NoError(t, err)

	input[0].Culture[0] = "mutated"
	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Japanese", got.Culture[0])

	got.Culture[0] = "mutated again"
	all := store.All()
	assert.Equal(t, "Japanese", all[0].Culture[0])

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfidenceOrdering(t *testing.T) {
	assert.True(t, High.AtLeast(Medium))
	assert.True(t, Medium.AtLeast(Medium))
	assert.False(t, Low.AtLeast(Medium))
	assert.Zero(t, Confidence("unknown").Rank())
}

func TestSubfieldFamily(t *testing.T) {
	d, ok := SubfieldFamily("narratology")
	require.True(t, ok)
	assert.Equal(t, Literature, d)

	_, ok = SubfieldFamily("nope")
	assert.False(t, ok)
	assert.Contains(t, Subfields(CulturalStudies), "ritual_studies")
}

func TestLoadGlob(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "kb", "ling")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	writeFile(t, filepath.Join(dir, "kb", "a.yaml"), `documents:
  - id: a
    text: Honorific registers mark distance.
    discipline: [linguistics]
    subfield: [sociolinguistics]
    culture: [Korean]
    era: contemporary
    stance: descriptive
    confidence: high
    source_type: journal
    source: A
`)
	writeFile(t, filepath.Join(nested, "b.yaml"), `documents:
  - id: b
    text: Ritual meals express harmony.
    discipline: [cultural_studies]
    subfield: [ritual_studies]
    era: modern
    stance: descriptive
    confidence: medium
    source_type: ethnography
    source: B
`)

	store, err := LoadGlob([]string{filepath.Join(dir, "kb", "**", "*.yaml")})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	st := store.Stats()
	assert.Equal(t, 1, st.ByDiscipline[Linguistics])
	assert.Equal(t, 1, st.ByCulture["Korean"])
}

func TestLoadGlobErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadGlob([]string{filepath.Join(dir, "*.yaml")})
	assert.ErrorContains(t, err, "matched no files")

	writeFile(t, filepath.Join(dir, "typo.yaml"), "documents:\n  - id: x\n    discpline: [linguistics]\n")
	_, err = LoadGlob([]string{filepath.Join(dir, "*.yaml")})
	assert.Error(t, err)

	writeFile(t, filepath.Join(dir, "typo.yaml"), `documents:
  - id: x
    text: t
    discipline: [linguistics]
    era: modern
    stance: descriptive
    confidence: extreme
    source_type: book
    source: s
`)
	_, err = LoadGlob([]string{filepath.Join(dir, "*.yaml")})
	var docErr *DocumentError
	assert.ErrorAs(t, err, &docErr)
}

func TestOpenDefaultsToSample(t *testing.T) {
	store, err := Open(nil)
	require.NoError(t, err)
	_, ok := store.Get("ling-politeness-indirectness")
	assert.True(t, ok)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
