package vectordb

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
)

// Document represents a piece of content to be stored and searched.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds the knowledge-document fields kept next to each
// vector. chromem stores metadata as flat strings.
type DocumentMetadata struct {
	PrimaryDiscipline string
	Disciplines       []string
	Cultures          []string
	Confidence        string
	SourceType        string
	Source            string
	ContentHash       string
}

// FromKnowledge converts a knowledge document into an indexable document.
func FromKnowledge(d knowledge.Document) Document {
	disciplines := make([]string, len(d.Discipline))
	for i, disc := range d.Discipline {
		disciplines[i] = string(disc)
	}
	sum := sha256.Sum256([]byte(d.Text))
	return Document{
		ID:      d.ID,
		Content: d.Text,
		Metadata: DocumentMetadata{
			PrimaryDiscipline: string(d.PrimaryDiscipline()),
			Disciplines:       disciplines,
			Cultures:          append([]string(nil), d.Culture...),
			Confidence:        string(d.Confidence),
			SourceType:        string(d.SourceType),
			Source:            d.Source,
			ContentHash:       hex.EncodeToString(sum[:8]),
		},
	}
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by exact metadata values.
type SearchFilter struct {
	PrimaryDiscipline *string
	Confidence        *string
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}
