// Package article defines the structured answer contract, validates model
// output against it, repairs invalid output and renders valid articles.
package article

import (
	"encoding/json"
	"slices"
)

// Text is a single block of prose.
type Text struct {
	Text string `json:"text"`
}

// Section is one titled part of the answer body.
type Section struct {
	Title     string   `json:"title"`
	Paragraph string   `json:"paragraph"`
	Bullets   []string `json:"bullets"`
}

// Article is the structured answer produced by generation and consumed by
// the renderer.
type Article struct {
	Intro      Text      `json:"intro"`
	Sections   []Section `json:"sections"`
	Conclusion Text      `json:"conclusion"`
}

// JSON encodes the article with empty lists written as [] rather than null,
// so the output always satisfies Parse.
func (a Article) JSON() string {
	b, _ := json.MarshalIndent(a.normalized(), "", "  ")
	return string(b)
}

// Clone returns a deep copy.
func (a Article) Clone() Article {
	out := a
	out.Sections = make([]Section, len(a.Sections))
	for i, s := range a.Sections {
		s.Bullets = slices.Clone(s.Bullets)
		out.Sections[i] = s
	}
	return out
}

func (a Article) normalized() Article {
	out := a.Clone()
	if out.Sections == nil {
		out.Sections = []Section{}
	}
	for i := range out.Sections {
		if out.Sections[i].Bullets == nil {
			out.Sections[i].Bullets = []string{}
		}
	}
	return out
}
