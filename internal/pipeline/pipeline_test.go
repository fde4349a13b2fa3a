package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/grounding"
	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/llm"
	"github.com/ziadkadry99/interlingua/internal/llm/llmtest"
	"github.com/ziadkadry99/interlingua/internal/retrieval"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const menikahQuestion = "Why does 'Sudah menikah?' sound polite in Indonesian but intrusive in English?"

const articleJSON = `{
  "intro": {"text": "Questions about marriage can be friendly or intrusive."},
  "sections": [
    {"title": "Phatic questions", "paragraph": "In many Indonesian settings they show interest.", "bullets": ["Often formulaic"]},
    {"title": "Privacy", "paragraph": "Many English speakers reserve them for close friends.", "bullets": []}
  ],
  "conclusion": {"text": "Both readings are shaped by context."}
}`

const intentJSON = `{
  "cultures_involved": ["Indonesian", "English"],
  "primary_discipline": "linguistics",
  "subfields": ["pragmatics"],
  "key_concepts": ["politeness", "privacy"],
  "query_type": "comparative",
  "requires_comparison": true,
  "analysis_confidence": "high"
}`

type handler func(req llm.CompletionRequest) (string, error)

func reply(s string) handler {
	return func(llm.CompletionRequest) (string, error) { return s, nil }
}

func fail(err error) handler {
	return func(llm.CompletionRequest) (string, error) { return "", err }
}

// echoDraft returns the draft embedded in an audit request unchanged.
func echoDraft(req llm.CompletionRequest) (string, error) {
	prompt := req.Messages[1].Content
	start := strings.Index(prompt, draftOpen+"\n")
	end := strings.LastIndex(prompt, "\n"+draftClose)
	if start < 0 || end < start {
		return "", errors.New("no draft in audit prompt")
	}
	return prompt[start+len(draftOpen)+1 : end], nil
}

// script routes requests by system prompt.
type script struct {
	classify, generate, legacy, audit handler
}

func (s script) provider() *llmtest.MockProvider {
	m := llmtest.New()
	m.Respond = func(req llm.CompletionRequest) (string, error) {
		var h handler
		switch req.Messages[0].Content {
		case structuredSystemPrompt:
			h = s.generate
		case legacySystemPrompt:
			h = s.legacy
		case auditSystemPrompt:
			h = s.audit
		default:
			h = s.classify
		}
		if h == nil {
			return "", fmt.Errorf("unexpected call: %.40q", req.Messages[0].Content)
		}
		return h(req)
	}
	return m
}

type fixture struct {
	pipeline *Pipeline
	metrics  *Metrics
	logs     *observer.ObservedLogs
	provider llm.Provider
}

func newFixture(t *testing.T, provider llm.Provider, useClassifier bool, mutate ...func(*Config, *Deps)) fixture {
	t.Helper()
	store, err := knowledge.Sample()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	metrics := NewMetrics(prometheus.NewRegistry())
	deps := Deps{
		Provider:  provider,
		Retriever: retrieval.New(store),
		Logger:    zap.New(core),
		Metrics:   metrics,
	}
	if useClassifier {
		deps.Classifier = intent.NewClassifier(provider)
	}
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg, &deps)
	}
	p, err := New(deps, cfg)
	require.NoError(t, err)
	return fixture{pipeline: p, metrics: metrics, logs: logs, provider: provider}
}

func TestRunStructuredHappyPath(t *testing.T) {
	mock := script{classify: reply(intentJSON), generate: reply(articleJSON), audit: echoDraft}.provider()
	f := newFixture(t, mock, true)

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", DefaultRunOptions())
	require.NoError(t, err)

	want, err := article.Parse(articleJSON)
	require.NoError(t, err)
	assert.Equal(t, want, res.Article)
	assert.Equal(t, article.Render(want), res.Markdown)
	assert.Equal(t, ModeStructured, res.Mode)
	assert.True(t, res.Audited)
	assert.False(t, res.Repaired)
	assert.False(t, res.IntentFallback)
	assert.Equal(t, []string{"Indonesian", "English"}, res.Intent.CulturesInvolved)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, menikahQuestion, res.Question)

	require.NotEmpty(t, res.Sources)
	assert.Len(t, res.Sources, len(res.DocumentIDs))
	for _, s := range res.Sources {
		assert.Contains(t, s, " — ")
	}

	require.Equal(t, 3, mock.CallCount())
	gen := mock.Call(1)
	assert.True(t, gen.JSONMode)
	assert.Equal(t, 0.7, gen.Temperature)
	assert.Contains(t, gen.Messages[1].Content, menikahQuestion)
	assert.Contains(t, gen.Messages[1].Content, "## Interpretive Context")
	assert.Contains(t, gen.Messages[1].Content, grounding.ReminderNoHierarchy)
	audit := mock.Call(2)
	assert.True(t, audit.JSONMode)
	assert.Equal(t, 0.3, audit.Temperature)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.runs.WithLabelValues("structured")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.audits.WithLabelValues("applied")))
}

func TestRunClassifierFailureUsesHeuristic(t *testing.T) {
	mock := script{classify: fail(errors.New("timeout")), generate: reply(articleJSON), audit: echoDraft}.provider()
	f := newFixture(t, mock, true)

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", DefaultRunOptions())
	require.NoError(t, err)

	assert.True(t, res.IntentFallback)
	assert.Equal(t, []string{"General"}, res.Intent.CulturesInvolved)
	assert.Equal(t, knowledge.Linguistics, res.Intent.PrimaryDiscipline)
	assert.Contains(t, res.Intent.Subfields, "pragmatics")
	assert.Equal(t, knowledge.Low, res.Intent.AnalysisConfidence)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.fallbacks.WithLabelValues("classify")))
	assert.Equal(t, 1, f.logs.FilterMessage("intent classification failed, using heuristic").Len())
}

func TestRunWithoutClassifierUsesHeuristic(t *testing.T) {
	mock := script{generate: reply(articleJSON)}.provider()
	f := newFixture(t, mock, false)

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", RunOptions{IncludeReferences: true})
	require.NoError(t, err)
	assert.True(t, res.IntentFallback)
	assert.Equal(t, 1, mock.CallCount())
	assert.False(t, res.Audited)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.audits.WithLabelValues("disabled")))
}

func TestRunMalformedOutputIsRepaired(t *testing.T) {
	mock := script{generate: reply("not json at all")}.provider()
	f := newFixture(t, mock, false)

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", RunOptions{})
	require.NoError(t, err)

	require.Len(t, res.Article.Sections, 1)
	assert.Equal(t, "not json at all", res.Article.Sections[0].Paragraph)
	assert.Equal(t, "", res.Article.Conclusion.Text)
	assert.True(t, res.Repaired)
	assert.Equal(t, ModeStructured, res.Mode)
	assert.Equal(t, article.Render(res.Article), res.Markdown)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.fallbacks.WithLabelValues("validate")))
}

func TestRunAuditFailureKeepsDraft(t *testing.T) {
	tests := []struct {
		name    string
		audit   handler
		outcome string
	}{
		{"audit call fails", fail(errors.New("overloaded")), "failed"},
		{"audit output not json", reply("Looks good to me."), "rejected"},
		{"audit output breaks schema", reply(`{"intro":{"text":"x"},"sections":[{"title":1}],"conclusion":{"text":""}}`), "rejected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := script{generate: reply(articleJSON), audit: tt.audit}.provider()
			f := newFixture(t, mock, false)

			res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", DefaultRunOptions())
			require.NoError(t, err)

			want, _ := article.Parse(articleJSON)
			assert.Equal(t, want, res.Article)
			assert.False(t, res.Audited)
			assert.False(t, res.Repaired)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.audits.WithLabelValues(tt.outcome)))
			assert.Equal(t, 1, f.logs.FilterMessageSnippet("audit skipped").Len())
		})
	}
}

func TestRunAuditRevisionApplied(t *testing.T) {
	revised := strings.Replace(articleJSON, "can be friendly", "are often friendly", 1)
	mock := script{generate: reply(articleJSON), audit: reply("```json\n" + revised + "\n```")}.provider()
	f := newFixture(t, mock, false)

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", DefaultRunOptions())
	require.NoError(t, err)
	assert.True(t, res.Audited)
	assert.Equal(t, "Questions about marriage are often friendly or intrusive.", res.Article.Intro.Text)
}

func TestRunAuditCanRescueMalformedDraft(t *testing.T) {
	mock := script{generate: reply("Intro: questions differ."), audit: reply(articleJSON)}.provider()
	f := newFixture(t, mock, false)

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", DefaultRunOptions())
	require.NoError(t, err)
	assert.True(t, res.Audited)
	assert.False(t, res.Repaired)
	assert.Len(t, res.Article.Sections, 2)
}

func TestAuditIsIdempotentWhenCollaboratorEchoes(t *testing.T) {
	mock := script{audit: echoDraft}.provider()
	f := newFixture(t, mock, false)
	log := zap.NewNop()

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		a := randomArticle(rng)
		draft := a.JSON()

		once, ok := f.pipeline.audit(context.Background(), log, draft, "ctx")
		require.True(t, ok)
		twice, ok := f.pipeline.audit(context.Background(), log, once, "ctx")
		require.True(t, ok)

		assert.Equal(t, once, twice)
		got, err := article.Parse(twice)
		require.NoError(t, err)
		assert.Equal(t, a.JSON(), got.JSON())
	}
}

func randomArticle(rng *rand.Rand) article.Article {
	words := []string{"face", "hierarchy", "kinship", "register", "silence", "gift", "\"quoted\"", "ü", "日本"}
	phrase := func() string {
		n := rng.Intn(5)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = words[rng.Intn(len(words))]
		}
		return strings.Join(parts, " ")
	}
	a := article.Article{Intro: article.Text{Text: phrase()}, Conclusion: article.Text{Text: phrase()}}
	for i := rng.Intn(4); i > 0; i-- {
		s := article.Section{Title: phrase(), Paragraph: phrase(), Bullets: []string{}}
		for j := rng.Intn(3); j > 0; j-- {
			s.Bullets = append(s.Bullets, phrase())
		}
		a.Sections = append(a.Sections, s)
	}
	return a
}

func TestRunFallsBackToLegacyWithStreaming(t *testing.T) {
	legacyMarkdown := "Questions about marriage vary.\n\n## Context\n\nThey are often phatic."
	base := script{generate: fail(errors.New("503 service unavailable")), legacy: reply(legacyMarkdown)}.provider()
	streaming := &llmtest.StreamingMock{MockProvider: base, ChunkSize: 5}
	f := newFixture(t, streaming, false)

	var deltas []string
	opts := DefaultRunOptions()
	opts.OnDelta = func(d string) { deltas = append(deltas, d) }

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", opts)
	require.NoError(t, err)

	assert.Equal(t, ModeLegacy, res.Mode)
	assert.Equal(t, legacyMarkdown, res.Markdown)
	assert.Equal(t, legacyMarkdown, strings.Join(deltas, ""))
	assert.Greater(t, len(deltas), 1)
	assert.Equal(t, article.Repair(legacyMarkdown), res.Article)
	assert.False(t, res.Audited)

	require.Equal(t, 2, base.CallCount())
	legacyReq := base.Call(1)
	assert.False(t, legacyReq.JSONMode)
	assert.Equal(t, legacySystemPrompt, legacyReq.Messages[0].Content)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.fallbacks.WithLabelValues("generate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.runs.WithLabelValues("legacy")))
}

func TestRunForcedLegacyMode(t *testing.T) {
	mock := script{legacy: reply("## Answer\n\nShort.")}.provider()
	f := newFixture(t, mock, false, func(c *Config, _ *Deps) { c.Mode = ModeLegacy })

	res, err := f.pipeline.Run(context.Background(), "q", "", DefaultRunOptions())
	require.NoError(t, err)
	assert.Equal(t, ModeLegacy, res.Mode)
	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.fallbacks.WithLabelValues("generate")))
}

func TestRunBothStrategiesFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	legacyErr := errors.New("legacy down")
	mock := script{generate: fail(primaryErr), legacy: fail(legacyErr)}.provider()
	f := newFixture(t, mock, false)

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", DefaultRunOptions())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, legacyErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.failures))
}

func TestRunEmptyLegacyOutputFails(t *testing.T) {
	mock := script{generate: fail(errors.New("down")), legacy: reply("   ")}.provider()
	f := newFixture(t, mock, false)

	_, err := f.pipeline.Run(context.Background(), "q", "", DefaultRunOptions())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

// slowFirst blocks its first call until the context expires, then answers.
type slowFirst struct {
	mu    sync.Mutex
	calls int
	reply string
}

func (s *slowFirst) Name() string { return "slow" }

func (s *slowFirst) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()
	if first {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &llm.CompletionResponse{Content: s.reply}, nil
}

func TestRunTimeoutTriggersLegacy(t *testing.T) {
	slow := &slowFirst{reply: "## Answer\n\nFast legacy answer."}
	f := newFixture(t, slow, false, func(c *Config, _ *Deps) { c.CallTimeout = 20 * time.Millisecond })

	res, err := f.pipeline.Run(context.Background(), "q", "", DefaultRunOptions())
	require.NoError(t, err)
	assert.Equal(t, ModeLegacy, res.Mode)
	assert.Equal(t, "## Answer\n\nFast legacy answer.", res.Markdown)
}

func TestRunReferences(t *testing.T) {
	mock := script{generate: reply(articleJSON)}.provider()
	f := newFixture(t, mock, false)

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", RunOptions{IncludeReferences: false})
	require.NoError(t, err)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)
	assert.NotEmpty(t, res.DocumentIDs)
}

func TestRunEmptyRetrievalIsUngrounded(t *testing.T) {
	mock := script{generate: reply(articleJSON)}.provider()
	empty, err := knowledge.New(nil)
	require.NoError(t, err)
	f := newFixture(t, mock, false, func(_ *Config, d *Deps) { d.Retriever = retrieval.New(empty) })

	res, err := f.pipeline.Run(context.Background(), menikahQuestion, "", DefaultRunOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Sources)
	assert.Contains(t, mock.Call(0).Messages[1].Content, grounding.NoGroundingMessage)
}

func TestRunIncludesConversation(t *testing.T) {
	mock := script{generate: reply(articleJSON)}.provider()
	f := newFixture(t, mock, false)

	_, err := f.pipeline.Run(context.Background(), "And in Japan?", "user: asked about Bali", RunOptions{})
	require.NoError(t, err)
	assert.Contains(t, mock.Call(0).Messages[1].Content, "user: asked about Bali")
}

type recorder struct {
	mu      sync.Mutex
	results []*Result
	err     error
}

func (r *recorder) Record(ctx context.Context, res *Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return r.err
}

func TestRunRecordsResults(t *testing.T) {
	rec := &recorder{err: errors.New("disk full")}
	mock := script{generate: reply(articleJSON)}.provider()
	f := newFixture(t, mock, false, func(_ *Config, d *Deps) { d.Recorder = rec })

	res, err := f.pipeline.Run(context.Background(), "q", "", RunOptions{})
	require.NoError(t, err, "recording failures do not fail the run")
	require.Len(t, rec.results, 1)
	assert.Same(t, res, rec.results[0])
	assert.Equal(t, 1, f.logs.FilterMessage("recording result failed").Len())
}

func TestRunConcurrent(t *testing.T) {
	mock := script{classify: reply(intentJSON), generate: reply(articleJSON), audit: echoDraft}.provider()
	f := newFixture(t, mock, true)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.pipeline.Run(context.Background(), fmt.Sprintf("question %d about politeness", i), "", DefaultRunOptions())
			if assert.NoError(t, err) {
				ids[i] = res.RequestID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "request ids are unique")
		seen[id] = true
	}
}

func TestNewValidatesDeps(t *testing.T) {
	store, err := knowledge.Sample()
	require.NoError(t, err)
	r := retrieval.New(store)

	_, err = New(Deps{Retriever: r}, DefaultConfig())
	assert.Error(t, err)
	_, err = New(Deps{Provider: llmtest.New()}, DefaultConfig())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Mode = "poetry"
	_, err = New(Deps{Provider: llmtest.New(), Retriever: r}, cfg)
	assert.Error(t, err)

	cfg.Mode = ""
	p, err := New(Deps{Provider: llmtest.New(), Retriever: r}, cfg)
	require.NoError(t, err)
	assert.Equal(t, ModeStructured, p.cfg.Mode)
}

func TestSourceSummary(t *testing.T) {
	d := knowledge.Document{
		Source:     "Study of pantun",
		Discipline: []knowledge.Discipline{knowledge.Literature, knowledge.CulturalStudies},
		Culture:    []string{"Indonesian", "Malay"},
	}
	assert.Equal(t, "Study of pantun — literature, cultural_studies · Indonesian, Malay", SourceSummary(d))

	d.Culture = nil
	assert.Equal(t, "Study of pantun — literature, cultural_studies", SourceSummary(d))
}
