// Package vectordb holds the embedding index over the knowledge corpus.
package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/interlingua/internal/embeddings"
)

const (
	collectionName = "knowledge"
	indexFile      = "chromem.gob.gz"
)

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
	}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}
	return s.collection.AddDocuments(ctx, chromDocs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	if limit <= 0 || limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.collection.Delete(ctx, nil, nil, ids...)
}

func (s *ChromemStore) Persist(_ context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, indexFile), true, "")
}

// Load replaces the store's contents with a persisted index. A missing
// index file yields an error wrapping os.ErrNotExist.
func (s *ChromemStore) Load(_ context.Context, dir string) error {
	path := filepath.Join(dir, indexFile)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("semantic index %s: %w", path, err)
	}
	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"primary_discipline": m.PrimaryDiscipline,
		"disciplines":        strings.Join(m.Disciplines, "|"),
		"cultures":           strings.Join(m.Cultures, "|"),
		"confidence":         m.Confidence,
		"source_type":        m.SourceType,
		"source":             m.Source,
		"content_hash":       m.ContentHash,
	}
}

func mapToMetadata(m map[string]string) DocumentMetadata {
	return DocumentMetadata{
		PrimaryDiscipline: m["primary_discipline"],
		Disciplines:       splitList(m["disciplines"]),
		Cultures:          splitList(m["cultures"]),
		Confidence:        m["confidence"],
		SourceType:        m["source_type"],
		Source:            m["source"],
		ContentHash:       m["content_hash"],
	}
}

// buildWhereClause converts a SearchFilter to a chromem where clause.
func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}

	where := make(map[string]string)
	if filter.PrimaryDiscipline != nil {
		where["primary_discipline"] = *filter.PrimaryDiscipline
	}
	if filter.Confidence != nil {
		where["confidence"] = *filter.Confidence
	}
	if len(where) == 0 {
		return nil
	}
	return where
}
