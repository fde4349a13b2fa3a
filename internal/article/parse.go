package article

import (
	"encoding/json"
	"fmt"

	"github.com/ziadkadry99/interlingua/internal/llm"
)

// RepairTitle is the title of the single section Repair produces.
const RepairTitle = "Response"

// introLimit is the number of characters of raw output Repair keeps as intro.
const introLimit = 200

// ValidationError names the first field of a decoded article that breaks
// the schema, e.g. "sections[1].bullets[0]".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid article: " + e.Reason
	}
	return fmt.Sprintf("invalid article: %s: %s", e.Field, e.Reason)
}

// Parse strips an enclosing code fence, decodes raw as strict JSON and
// validates it field by field. Unknown fields are ignored.
func Parse(raw string) (Article, error) {
	var doc any
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &doc); err != nil {
		return Article{}, fmt.Errorf("article json parse: %w", err)
	}
	return validate(doc)
}

// Repair builds the degraded article used when raw cannot be parsed: the
// first 200 characters as intro, the full text as a single "Response"
// section, and an empty conclusion.
func Repair(raw string) Article {
	intro := []rune(raw)
	if len(intro) > introLimit {
		intro = intro[:introLimit]
	}
	return Article{
		Intro:      Text{Text: string(intro)},
		Sections:   []Section{{Title: RepairTitle, Paragraph: raw, Bullets: []string{}}},
		Conclusion: Text{Text: ""},
	}
}

// ParseOrRepair always returns a valid article. The error, when non-nil,
// explains why the article had to be repaired.
func ParseOrRepair(raw string) (Article, error) {
	a, err := Parse(raw)
	if err != nil {
		return Repair(raw), err
	}
	return a, nil
}

func validate(doc any) (Article, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return Article{}, &ValidationError{Reason: "expected object, got " + typeName(doc)}
	}

	var a Article
	var err error
	if a.Intro.Text, err = textBlock(root, "intro"); err != nil {
		return Article{}, err
	}

	rawSections, ok := root["sections"]
	if !ok {
		return Article{}, &ValidationError{Field: "sections", Reason: "missing"}
	}
	list, ok := rawSections.([]any)
	if !ok {
		return Article{}, &ValidationError{Field: "sections", Reason: "expected array, got " + typeName(rawSections)}
	}
	a.Sections = make([]Section, 0, len(list))
	for i, item := range list {
		s, err := section(item, fmt.Sprintf("sections[%d]", i))
		if err != nil {
			return Article{}, err
		}
		a.Sections = append(a.Sections, s)
	}

	if a.Conclusion.Text, err = textBlock(root, "conclusion"); err != nil {
		return Article{}, err
	}
	return a, nil
}

// textBlock reads {"text": "..."} at root[key].
func textBlock(root map[string]any, key string) (string, error) {
	v, ok := root[key]
	if !ok {
		return "", &ValidationError{Field: key, Reason: "missing"}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return "", &ValidationError{Field: key, Reason: "expected object, got " + typeName(v)}
	}
	return stringField(obj, "text", key+".text")
}

func section(item any, path string) (Section, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Section{}, &ValidationError{Field: path, Reason: "expected object, got " + typeName(item)}
	}

	var s Section
	var err error
	if s.Title, err = stringField(obj, "title", path+".title"); err != nil {
		return Section{}, err
	}
	if s.Paragraph, err = stringField(obj, "paragraph", path+".paragraph"); err != nil {
		return Section{}, err
	}

	rawBullets, ok := obj["bullets"]
	if !ok {
		return Section{}, &ValidationError{Field: path + ".bullets", Reason: "missing"}
	}
	bullets, ok := rawBullets.([]any)
	if !ok {
		return Section{}, &ValidationError{Field: path + ".bullets", Reason: "expected array, got " + typeName(rawBullets)}
	}
	s.Bullets = make([]string, 0, len(bullets))
	for j, b := range bullets {
		str, ok := b.(string)
		if !ok {
			return Section{}, &ValidationError{
				Field:  fmt.Sprintf("%s.bullets[%d]", path, j),
				Reason: "expected string, got " + typeName(b),
			}
		}
		s.Bullets = append(s.Bullets, str)
	}
	return s, nil
}

func stringField(obj map[string]any, key, path string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", &ValidationError{Field: path, Reason: "missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: path, Reason: "expected string, got " + typeName(v)}
	}
	return s, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
