package intent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/llm"
	"github.com/ziadkadry99/interlingua/internal/logging"
)

// ErrNoProvider is returned by Classify when no LLM provider is configured.
var ErrNoProvider = errors.New("intent: no llm provider configured")

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 1024
)

// Classifier asks an LLM for the intent of a question.
type Classifier struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
	cache       *gocache.Cache
	logger      *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *Classifier) { c.model = model }
}

// WithTemperature sets the sampling temperature of the classification call.
func WithTemperature(t float64) Option {
	return func(c *Classifier) { c.temperature = t }
}

// WithCache keeps successful classifications for ttl. A non-positive ttl
// disables caching.
func WithCache(ttl time.Duration) Option {
	return func(c *Classifier) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = gocache.New(ttl, 2*ttl)
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) { c.logger = logging.OrNop(l) }
}

// NewClassifier creates a Classifier. provider may be nil, in which case
// Classify always fails and Analyze always uses the heuristic.
func NewClassifier(provider llm.Provider, opts ...Option) *Classifier {
	c := &Classifier{
		provider:    provider,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify makes one JSON-mode completion and validates the result. Any
// failure is returned to the caller, which decides how to fall back.
func (c *Classifier) Classify(ctx context.Context, question, conversation string) (Intent, error) {
	if c.provider == nil {
		return Intent{}, ErrNoProvider
	}

	key := cacheKey(question, conversation)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached.(Intent).Clone(), nil
		}
	}

	system, user := buildMessages(question, conversation)
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:       c.model,
		Messages:    []llm.Message{llm.System(system), llm.User(user)},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("intent completion: %w", err)
	}

	in, err := parseIntent(resp.Content)
	if err != nil {
		return Intent{}, err
	}
	if c.cache != nil {
		c.cache.SetDefault(key, in.Clone())
	}
	return in, nil
}

// Analyze is Classify with the keyword heuristic as fallback; it never fails.
func (c *Classifier) Analyze(ctx context.Context, question, conversation string) Intent {
	in, err := c.Classify(ctx, question, conversation)
	if err != nil {
		c.logger.Warn("intent classification failed, using heuristic",
			zap.Error(err),
			zap.Int("question_len", len(question)))
		return Heuristic(question)
	}
	return in
}

// parseIntent decodes and validates a model response.
func parseIntent(raw string) (Intent, error) {
	var in Intent
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &in); err != nil {
		return Intent{}, fmt.Errorf("intent json parse: %w", err)
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return Intent{}, fmt.Errorf("intent validation: %w", err)
	}
	return in, nil
}

func cacheKey(question, conversation string) string {
	h := sha256.New()
	h.Write([]byte(question))
	h.Write([]byte{0})
	h.Write([]byte(conversation))
	return hex.EncodeToString(h.Sum(nil))
}
