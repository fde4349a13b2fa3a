package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/llm"
)

// generateStructured makes the single JSON-mode generation call. Only a
// failed call is an error; malformed output is handled by validation.
func (p *Pipeline) generateStructured(ctx context.Context, userPrompt string) (string, error) {
	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model:       p.cfg.Model,
		Messages:    []llm.Message{llm.System(structuredSystemPrompt), llm.User(userPrompt)},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.GenerationTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return "", err
	}
	p.logUsage("generate", resp)
	return resp.Content, nil
}

// generateLegacy asks for Markdown, streaming it to onDelta when the
// provider supports streaming.
func (p *Pipeline) generateLegacy(ctx context.Context, userPrompt string, onDelta func(string)) (string, error) {
	resp, err := llm.StreamOrComplete(ctx, p.provider, llm.CompletionRequest{
		Model:       p.cfg.Model,
		Messages:    []llm.Message{llm.System(legacySystemPrompt), llm.User(userPrompt)},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.GenerationTemperature,
	}, onDelta)
	if err != nil {
		return "", err
	}
	p.logUsage("generate_legacy", resp)
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// audit asks the model to revise draft against the rubric. The revision is
// used only if it is a valid article; otherwise draft is returned unchanged.
func (p *Pipeline) audit(ctx context.Context, log *zap.Logger, draft, groundingText string) (string, bool) {
	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model:       p.cfg.Model,
		Messages:    []llm.Message{llm.System(auditSystemPrompt), llm.User(buildAuditPrompt(llm.StripCodeFence(draft), groundingText))},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.AuditTemperature,
		JSONMode:    true,
	})
	if err != nil {
		log.Warn("audit skipped", zap.String("stage", "audit"), zap.Error(err))
		p.metrics.audit("failed")
		return draft, false
	}
	p.logUsage("audit", resp)
	if _, err := article.Parse(resp.Content); err != nil {
		log.Warn("audit skipped, revision invalid", zap.String("stage", "audit"), zap.Error(err))
		p.metrics.audit("rejected")
		return draft, false
	}
	p.metrics.audit("applied")
	return resp.Content, true
}

func (p *Pipeline) logUsage(stage string, resp *llm.CompletionResponse) {
	p.logger.Debug("llm usage",
		zap.String("stage", stage),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens),
		zap.Float64("estimated_cost_usd", llm.EstimateCost(p.cfg.Model, resp.InputTokens, resp.OutputTokens)))
}
