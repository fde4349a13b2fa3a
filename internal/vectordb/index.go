package vectordb

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
)

// Index adapts a VectorStore to the retriever's semantic boost.
type Index struct {
	store VectorStore
}

// NewIndex wraps store.
func NewIndex(store VectorStore) *Index {
	return &Index{store: store}
}

// Build embeds docs one at a time, calling onProgress after each.
func (i *Index) Build(ctx context.Context, docs []knowledge.Document, onProgress func(id string)) error {
	for _, d := range docs {
		if err := i.store.AddDocuments(ctx, []Document{FromKnowledge(d)}); err != nil {
			return fmt.Errorf("index %s: %w", d.ID, err)
		}
		if onProgress != nil {
			onProgress(d.ID)
		}
	}
	return nil
}

// Similarities returns the top n similarities by document ID, clamped to
// [0, 1].
func (i *Index) Similarities(ctx context.Context, query string, n int) (map[string]float64, error) {
	results, err := i.store.Search(ctx, query, n, nil)
	if err != nil {
		return nil, err
	}
	sims := make(map[string]float64, len(results))
	for _, r := range results {
		sims[r.Document.ID] = min(max(float64(r.Similarity), 0), 1)
	}
	return sims, nil
}

// Count is the number of indexed documents.
func (i *Index) Count() int {
	return i.store.Count()
}
