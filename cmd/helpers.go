package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/config"
	"github.com/ziadkadry99/interlingua/internal/db"
	"github.com/ziadkadry99/interlingua/internal/embeddings"
	"github.com/ziadkadry99/interlingua/internal/history"
	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/llm"
	"github.com/ziadkadry99/interlingua/internal/logging"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
	"github.com/ziadkadry99/interlingua/internal/retrieval"
	"github.com/ziadkadry99/interlingua/internal/vectordb"
)

// app holds everything a command needs to answer or search questions.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	knowledge  *knowledge.Store
	classifier *intent.Classifier
	retriever  *retrieval.Retriever
	pipeline   *pipeline.Pipeline
	history    *history.Store
	database   *db.DB
}

func (a *app) Close() {
	if a.database != nil {
		a.database.Close()
	}
	_ = a.logger.Sync()
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `interlingua init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	return logging.New(verbose, jsonLogs)
}

// createLLMProviderFromConfig creates the rate-limited LLM provider.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(provider, cfg.LLM.RequestsPerMinute), nil
}

// createEmbedderFromConfig creates the embedder used by the semantic index.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider).EmbeddingModel
	}
	return embeddings.New(string(provider), model)
}

// loadSemanticIndex opens the persisted index. A missing index is not an
// error: retrieval simply runs without the semantic boost.
func loadSemanticIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) *vectordb.Index {
	if !cfg.SemanticSearch {
		return nil
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		logger.Warn("semantic search disabled", zap.Error(err))
		return nil
	}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		logger.Warn("semantic search disabled", zap.Error(err))
		return nil
	}
	if err := store.Load(ctx, cfg.IndexDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("semantic index not found, run `interlingua index` to build it", zap.String("dir", cfg.IndexDir))
		} else {
			logger.Warn("semantic search disabled", zap.String("dir", cfg.IndexDir), zap.Error(err))
		}
		return nil
	}
	logger.Debug("semantic index loaded", zap.Int("documents", store.Count()))
	return vectordb.NewIndex(store)
}

// newRetrievalApp builds the components that do not need an LLM: config,
// knowledge base and retriever. Intents come from the heuristic.
func newRetrievalApp(ctx context.Context, overrides ...func(*config.Config)) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	store, err := knowledge.Open(cfg.KnowledgePaths)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}
	logger.Debug("knowledge base loaded", zap.Int("documents", store.Len()))

	opts := []retrieval.Option{retrieval.WithLogger(logger)}
	if idx := loadSemanticIndex(ctx, cfg, logger); idx != nil {
		opts = append(opts, retrieval.WithSemanticIndex(idx))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		knowledge: store,
		retriever: retrieval.New(store, opts...),
	}, nil
}

// analyze classifies with the LLM when one is configured.
func (a *app) analyze(ctx context.Context, question, conversation string) intent.Intent {
	if a.classifier == nil {
		return intent.Heuristic(question)
	}
	return a.classifier.Analyze(ctx, question, conversation)
}

// newApp builds the full question-answering stack. reg may be nil.
func newApp(ctx context.Context, reg prometheus.Registerer, overrides ...func(*config.Config)) (*app, error) {
	a, err := newRetrievalApp(ctx, overrides...)
	if err != nil {
		return nil, err
	}
	cfg := a.cfg

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	classifierOpts := []intent.Option{
		intent.WithModel(cfg.Model),
		intent.WithTemperature(cfg.LLM.ClassifyTemperature),
		intent.WithLogger(a.logger),
	}
	if ttl := cfg.IntentCacheTTL(); ttl > 0 {
		classifierOpts = append(classifierOpts, intent.WithCache(ttl))
	}
	a.classifier = intent.NewClassifier(provider, classifierOpts...)

	deps := pipeline.Deps{
		Provider:   provider,
		Classifier: a.classifier,
		Retriever:  a.retriever,
		Logger:     a.logger,
	}
	if reg != nil {
		deps.Metrics = pipeline.NewMetrics(reg)
	}

	if cfg.HistoryPath != "" {
		database, err := db.Open(cfg.HistoryPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening history database: %w", err)
		}
		a.database = database
		a.history = history.NewStore(database)
		deps.Recorder = a.history
	}

	a.pipeline, err = pipeline.New(deps, cfg.PipelineConfig())
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
