package retrieval

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/logging"
)

// SemanticIndex reports embedding similarity between a query and documents.
// Similarities are keyed by document ID and lie in [0, 1].
type SemanticIndex interface {
	Similarities(ctx context.Context, query string, n int) (map[string]float64, error)
}

// Retriever scores the documents of a Store. It holds no mutable state and
// is safe for concurrent use.
type Retriever struct {
	store    *knowledge.Store
	weights  Weights
	semantic SemanticIndex
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithWeights replaces the default scoring weights.
func WithWeights(w Weights) Option {
	return func(r *Retriever) { r.weights = w }
}

// WithSemanticIndex adds an embedding similarity term to every score.
func WithSemanticIndex(idx SemanticIndex) Option {
	return func(r *Retriever) { r.semantic = idx }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = logging.OrNop(l) }
}

// New creates a Retriever over store.
func New(store *knowledge.Store, opts ...Option) *Retriever {
	r := &Retriever{
		store:   store,
		weights: DefaultWeights(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most opts.MaxResults documents, best first, after
// diversification. It never fails; no match yields an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, query string, in intent.Intent, opts Options) []knowledge.Document {
	scored := r.Search(ctx, query, in, opts)
	docs := make([]knowledge.Document, len(scored))
	for i, sd := range scored {
		docs[i] = sd.Document
	}
	return docs
}

// Search is Retrieve with the scores kept.
func (r *Retriever) Search(ctx context.Context, query string, in intent.Intent, opts Options) []ScoredDocument {
	return Diversify(r.Rank(ctx, query, in, opts), opts.maxResults(), in.RequiresComparison)
}

// Rank scores every document, drops those with no match or below the
// minimum confidence, and sorts the rest by descending score. Ties are
// broken by document ID.
func (r *Retriever) Rank(ctx context.Context, query string, in intent.Intent, opts Options) []ScoredDocument {
	sims := r.similarities(ctx, query)

	minConf := opts.MinConfidence
	if minConf == "" {
		minConf = knowledge.Low
	}

	var ranked []ScoredDocument
	for _, doc := range r.store.All() {
		if !doc.Confidence.AtLeast(minConf) {
			continue
		}
		score := Score(doc, query, in, opts, r.weights, sims[doc.ID])
		if score <= 0 {
			continue
		}
		ranked = append(ranked, ScoredDocument{Document: doc, Score: score})
	}

	slices.SortStableFunc(ranked, func(a, b ScoredDocument) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Document.ID, b.Document.ID)
	})

	r.logger.Debug("ranked documents",
		zap.Int("candidates", r.store.Len()),
		zap.Int("matched", len(ranked)),
		zap.Bool("semantic", sims != nil))
	return ranked
}

func (r *Retriever) similarities(ctx context.Context, query string) map[string]float64 {
	if r.semantic == nil || query == "" {
		return nil
	}
	sims, err := r.semantic.Similarities(ctx, query, r.store.Len())
	if err != nil {
		r.logger.Warn("semantic index unavailable, using keyword scores only", zap.Error(err))
		return nil
	}
	return sims
}

// Diversify selects up to k documents from ranked (sorted best first). At
// most ceil(k/2) may share a primary discipline and, when comparison is
// true, a primary culture. Unused slots are then backfilled from the
// remaining candidates in rank order.
func Diversify(ranked []ScoredDocument, k int, comparison bool) []ScoredDocument {
	if k <= 0 || len(ranked) == 0 {
		return []ScoredDocument{}
	}
	limit := (k + 1) / 2

	selected := make([]ScoredDocument, 0, min(k, len(ranked)))
	taken := make([]bool, len(ranked))
	perDiscipline := make(map[knowledge.Discipline]int)
	perCulture := make(map[string]int)

	for i, sd := range ranked {
		if len(selected) == k {
			break
		}
		disc := sd.Document.PrimaryDiscipline()
		if perDiscipline[disc] >= limit {
			continue
		}
		culture := sd.Document.PrimaryCulture()
		if comparison && culture != "" && perCulture[culture] >= limit {
			continue
		}
		perDiscipline[disc]++
		if comparison && culture != "" {
			perCulture[culture]++
		}
		selected = append(selected, sd)
		taken[i] = true
	}

	for i, sd := range ranked {
		if len(selected) == k {
			break
		}
		if !taken[i] {
			selected = append(selected, sd)
			taken[i] = true
		}
	}
	return selected
}
