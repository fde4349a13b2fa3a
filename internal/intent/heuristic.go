package intent

import (
	"slices"
	"strings"
	"unicode"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
)

var (
	literatureWords = []string{"poem", "poetry", "novel", "literature", "literary", "folktale", "narrative", "writer", "metaphor", "pantun", "haiku"}
	traditionWords  = []string{"tradition", "ritual", "customs", "culture", "cultural", "festival", "religion", "adat"}
	politenessWords = []string{"polite", "politeness", "rude", "formal", "formality", "honorific", "respect", "intrusive", "impolite", "sopan"}
	comparisonWords = []string{"compare", "comparison", "versus", " vs ", "differ", "between", "contrast", "bandingkan"}
	historyWords    = []string{"history", "historical", "origin", "ancient", "evolve", "evolution", "sejarah"}
	translateWords  = []string{"translate", "translation", "terjemah", "how do you say", "what does", "mean in"}
	errorWords      = []string{"mistake", "error", "wrong", "incorrect", "grammar", "salah"}
)

// cultureNames maps spellings (English and Indonesian) of third-party
// cultures to a canonical label. Indonesian and English are the implicit
// home pair of every question and are not detected.
var cultureNames = []struct {
	label     string
	spellings []string
}{
	{"Japanese", []string{"japan", "jepang"}},
	{"Korean", []string{"korea"}},
	{"Chinese", []string{"china", "chinese", "cina", "tiongkok", "mandarin"}},
	{"American", []string{"america", "amerika"}},
	{"French", []string{"france", "french", "prancis"}},
	{"German", []string{"german", "jerman"}},
	{"Arab", []string{"arab"}},
	{"Indian", []string{"india"}},
	{"Australian", []string{"australia"}},
	{"Dutch", []string{"netherlands", "dutch", "belanda"}},
	{"Javanese", []string{"javanese", "jawa"}},
	{"Malay", []string{"malay", "melayu"}},
}

var socialDomains = []struct {
	domain string
	words  []string
}{
	{"workplace", []string{"workplace", "office", "boss", "colleague", "kantor"}},
	{"family", []string{"family", "parent", "keluarga", "married", "menikah", "wedding"}},
	{"education", []string{"school", "classroom", "teacher", "student", "sekolah"}},
	{"religion", []string{"religion", "mosque", "church", "prayer", "agama"}},
}

var frames = map[knowledge.Discipline]string{
	knowledge.Linguistics:     "pragmatic and sociolinguistic norms of language use",
	knowledge.Literature:      "literary interpretation in cultural context",
	knowledge.CulturalStudies: "cultural practice and its social meaning",
}

const maxKeyConcepts = 5

// Heuristic classifies question with keyword rules. It never fails, always
// names at least one culture, and reports low analysis confidence.
func Heuristic(question string) Intent {
	q := strings.ToLower(question)

	var disciplines []knowledge.Discipline
	var subfields []string
	if containsAny(q, literatureWords) {
		disciplines = append(disciplines, knowledge.Literature)
		subfields = append(subfields, "literary_criticism")
	}
	if containsAny(q, traditionWords) {
		disciplines = append(disciplines, knowledge.CulturalStudies)
	}
	if containsAny(q, politenessWords) {
		if !slices.Contains(disciplines, knowledge.Linguistics) {
			disciplines = append(disciplines, knowledge.Linguistics)
		}
		subfields = append(subfields, "pragmatics", "sociolinguistics")
	}
	if len(disciplines) == 0 {
		disciplines = []knowledge.Discipline{knowledge.Linguistics}
	}

	cultures := detectCultures(q)
	if len(cultures) == 0 {
		cultures = []string{PlaceholderCulture}
	}
	comparison := len(cultures) > 1 || containsAny(q, comparisonWords)

	return Intent{
		CulturesInvolved:          cultures,
		PrimaryDiscipline:         disciplines[0],
		SecondaryDisciplines:      disciplines[1:],
		Subfields:                 subfields,
		SocialDomain:              socialDomain(q),
		KeyConcepts:               keyConcepts(q),
		InterpretiveFrame:         frames[disciplines[0]],
		QueryType:                 queryType(q, disciplines[0], comparison),
		RequiresComparison:        comparison,
		RequiresHistoricalContext: containsAny(q, historyWords),
		AnalysisConfidence:        knowledge.Low,
	}
}

// detectCultures returns canonical culture labels in order of first
// mention. A spelling matches when a word of q starts with it, so "korean"
// matches "korea" but "parable" does not match "arab".
func detectCultures(q string) []string {
	var out []string
	for _, word := range words(q) {
		for _, c := range cultureNames {
			if slices.Contains(out, c.label) {
				continue
			}
			for _, s := range c.spellings {
				if strings.HasPrefix(word, s) {
					out = append(out, c.label)
					break
				}
			}
		}
	}
	return out
}

func queryType(q string, primary knowledge.Discipline, comparison bool) QueryType {
	switch {
	case containsAny(q, translateWords):
		return Translation
	case containsAny(q, errorWords):
		return ErrorAnalysis
	case comparison:
		return Comparative
	case primary == knowledge.Literature:
		return Interpretive
	case strings.Contains(q, "why") || strings.Contains(q, "mengapa") || strings.Contains(q, "kenapa"):
		return CulturalExplanation
	}
	return General
}

func socialDomain(q string) string {
	for _, d := range socialDomains {
		if containsAny(q, d.words) {
			return d.domain
		}
	}
	return "general"
}

// keyConcepts returns up to five distinct tokens longer than four
// characters, in the order they appear.
func keyConcepts(q string) []string {
	out := make([]string, 0, maxKeyConcepts)
	for _, tok := range words(q) {
		if len([]rune(tok)) <= 4 || slices.Contains(out, tok) {
			continue
		}
		out = append(out, tok)
		if len(out) == maxKeyConcepts {
			break
		}
	}
	return out
}

func words(q string) []string {
	return strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
