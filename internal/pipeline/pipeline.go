// Package pipeline runs a question through intent classification,
// retrieval, grounding, generation, audit, validation and rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/grounding"
	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/llm"
	"github.com/ziadkadry99/interlingua/internal/logging"
	"github.com/ziadkadry99/interlingua/internal/retrieval"
)

// ErrGenerationFailed is the only error Run returns: both the structured
// and the legacy generation strategies failed.
var ErrGenerationFailed = errors.New("pipeline: generation failed")

// Classifier produces an intent or reports why it could not.
type Classifier interface {
	Classify(ctx context.Context, question, conversation string) (intent.Intent, error)
}

// Retriever ranks knowledge documents for an intent.
type Retriever interface {
	Search(ctx context.Context, query string, in intent.Intent, opts retrieval.Options) []retrieval.ScoredDocument
}

// Recorder persists finished results.
type Recorder interface {
	Record(ctx context.Context, r *Result) error
}

// Deps are the collaborators of a Pipeline. Classifier, Logger, Metrics and
// Recorder are optional.
type Deps struct {
	Provider   llm.Provider
	Classifier Classifier
	Retriever  Retriever
	Logger     *zap.Logger
	Metrics    *Metrics
	Recorder   Recorder
}

// Config tunes generation.
type Config struct {
	Model                 string
	MaxTokens             int
	GenerationTemperature float64
	AuditTemperature      float64
	// CallTimeout bounds each generation and audit call. Zero disables it.
	CallTimeout time.Duration
	// Mode selects the generation strategy tried first.
	Mode      Mode
	Retrieval retrieval.Options
}

// DefaultConfig returns the reference settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:             4096,
		GenerationTemperature: 0.7,
		AuditTemperature:      0.3,
		CallTimeout:           60 * time.Second,
		Mode:                  ModeStructured,
		Retrieval:             retrieval.DefaultOptions(),
	}
}

// RunOptions are per-request switches.
type RunOptions struct {
	EnableAuditor     bool
	IncludeReferences bool
	// OnDelta receives streamed Markdown when legacy generation runs.
	OnDelta func(delta string)
}

// DefaultRunOptions enables the auditor and references.
func DefaultRunOptions() RunOptions {
	return RunOptions{EnableAuditor: true, IncludeReferences: true}
}

// Pipeline is safe for concurrent use; runs share no mutable state.
type Pipeline struct {
	provider   llm.Provider
	classifier Classifier
	retriever  Retriever
	logger     *zap.Logger
	metrics    *Metrics
	recorder   Recorder
	cfg        Config
}

// New validates deps and builds a Pipeline.
func New(deps Deps, cfg Config) (*Pipeline, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("pipeline: llm provider is required")
	}
	if deps.Retriever == nil {
		return nil, fmt.Errorf("pipeline: retriever is required")
	}
	switch cfg.Mode {
	case "":
		cfg.Mode = ModeStructured
	case ModeStructured, ModeLegacy:
	default:
		return nil, fmt.Errorf("pipeline: unknown mode %q", cfg.Mode)
	}
	return &Pipeline{
		provider:   llm.WithTimeout(deps.Provider, cfg.CallTimeout),
		classifier: deps.Classifier,
		retriever:  deps.Retriever,
		logger:     logging.OrNop(deps.Logger),
		metrics:    deps.Metrics,
		recorder:   deps.Recorder,
		cfg:        cfg,
	}, nil
}

// Run answers question. It returns a complete, schema-valid result or,
// only when both generation strategies fail, an error wrapping
// ErrGenerationFailed.
func (p *Pipeline) Run(ctx context.Context, question, conversation string, opts RunOptions) (*Result, error) {
	start := time.Now()
	res := &Result{
		RequestID: uuid.NewString(),
		Question:  question,
		CreatedAt: start.UTC(),
		Sources:   []string{},
	}
	log := p.logger.With(zap.String("request_id", res.RequestID))

	// ClassifyIntent
	stageStart := time.Now()
	res.Intent, res.IntentFallback = p.classify(ctx, log, question, conversation)
	p.metrics.stage("classify", stageStart)
	log.Debug("intent classified",
		zap.String("primary_discipline", string(res.Intent.PrimaryDiscipline)),
		zap.Strings("cultures", res.Intent.CulturesInvolved),
		zap.String("query_type", string(res.Intent.QueryType)),
		zap.String("analysis_confidence", string(res.Intent.AnalysisConfidence)),
		zap.Bool("fallback", res.IntentFallback))

	// Retrieve
	stageStart = time.Now()
	scored := p.retriever.Search(ctx, question, res.Intent, p.cfg.Retrieval)
	p.metrics.stage("retrieve", stageStart)
	p.metrics.retrievedDocs(len(scored))
	docs := make([]knowledge.Document, len(scored))
	res.DocumentIDs = make([]string, len(scored))
	for i, sd := range scored {
		docs[i] = sd.Document
		res.DocumentIDs[i] = sd.Document.ID
	}
	log.Debug("documents retrieved", zap.Strings("ids", res.DocumentIDs))

	// AssembleContext
	groundingText := grounding.Assemble(docs, res.Intent)
	userPrompt := buildGenerationPrompt(question, conversation, groundingText, res.Intent)

	// Generate
	var raw string
	var err error
	mode := p.cfg.Mode
	if mode == ModeStructured {
		stageStart = time.Now()
		raw, err = p.generateStructured(ctx, userPrompt)
		p.metrics.stage("generate", stageStart)
		if err != nil {
			log.Warn("structured generation failed, switching to legacy",
				zap.String("stage", "generate"),
				zap.Error(err),
				zap.Int("question_len", len(question)))
			p.metrics.fallback("generate")
			mode = ModeLegacy
		}
	}

	if mode == ModeLegacy {
		stageStart = time.Now()
		text, legacyErr := p.generateLegacy(ctx, userPrompt, opts.OnDelta)
		p.metrics.stage("generate_legacy", stageStart)
		if legacyErr != nil {
			p.metrics.failure()
			log.Error("legacy generation failed", zap.Error(legacyErr))
			return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, errors.Join(err, legacyErr))
		}
		res.Mode = ModeLegacy
		res.Markdown = text
		res.Article = article.Repair(text)
		res.Repaired = true
		if opts.EnableAuditor {
			log.Debug("audit skipped", zap.String("reason", "legacy output is not structured"))
			p.metrics.audit("not_applicable")
		}
	} else {
		res.Mode = ModeStructured

		// Audit
		if opts.EnableAuditor {
			stageStart = time.Now()
			raw, res.Audited = p.audit(ctx, log, raw, groundingText)
			p.metrics.stage("audit", stageStart)
		} else {
			p.metrics.audit("disabled")
		}

		// Validate
		a, parseErr := article.ParseOrRepair(raw)
		if parseErr != nil {
			log.Warn("generation output invalid, using repaired article",
				zap.String("stage", "validate"),
				zap.Error(parseErr))
			p.metrics.fallback("validate")
			res.Repaired = true
		}
		res.Article = a

		// Render
		res.Markdown = article.Render(a)
	}

	if opts.IncludeReferences {
		for _, d := range docs {
			res.Sources = append(res.Sources, SourceSummary(d))
		}
	}

	res.Duration = time.Since(start)
	p.metrics.run(res.Mode)
	log.Info("pipeline run complete",
		zap.String("mode", string(res.Mode)),
		zap.Int("documents", len(docs)),
		zap.Bool("audited", res.Audited),
		zap.Bool("repaired", res.Repaired),
		zap.Duration("duration", res.Duration))

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, res); err != nil {
			log.Warn("recording result failed", zap.Error(err))
		}
	}
	return res, nil
}

// classify returns the LLM intent, or the heuristic one and true when the
// classifier is missing or failed.
func (p *Pipeline) classify(ctx context.Context, log *zap.Logger, question, conversation string) (intent.Intent, bool) {
	if p.classifier == nil {
		return intent.Heuristic(question), true
	}
	in, err := p.classifier.Classify(ctx, question, conversation)
	if err != nil {
		log.Warn("intent classification failed, using heuristic",
			zap.String("stage", "classify"),
			zap.Error(err),
			zap.Int("question_len", len(question)))
		p.metrics.fallback("classify")
		return intent.Heuristic(question), true
	}
	return in, false
}
