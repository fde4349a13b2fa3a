package embeddings

import (
	"context"
	"errors"

	chromem "github.com/philippgille/chromem-go"
)

// ErrNoEmbedding is returned when a provider answers with no vector.
var ErrNoEmbedding = errors.New("embeddings: provider returned no vector")

// ToChromemFunc converts an Embedder into a chromem.EmbeddingFunc, which
// embeds a single text at a time.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 || len(results[0]) == 0 {
			return nil, ErrNoEmbedding
		}
		return results[0], nil
	}
}
