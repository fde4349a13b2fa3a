package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
	"github.com/ziadkadry99/interlingua/internal/retrieval"
)

// DefaultPath is the config file the CLI reads and `interlingua init` writes.
const DefaultPath = ".interlingua.yml"

// EnvPrefix prefixes environment overrides. A double underscore nests:
// INTERLINGUA_LLM__TIMEOUT_SECONDS sets llm.timeout_seconds.
const EnvPrefix = "INTERLINGUA_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (INTERLINGUA_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps INTERLINGUA_SERVER__PORT to server.port.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderOllama:    true,
}

// embedding providers must expose an embeddings endpoint.
var validEmbeddingProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.SemanticSearch {
		if !validEmbeddingProviders[c.EmbeddingProvider] {
			return fmt.Errorf("invalid embedding_provider %q: must be openai or ollama", c.EmbeddingProvider)
		}
		if c.EmbeddingModel == "" {
			return fmt.Errorf("embedding_model is required when semantic_search is enabled")
		}
	}

	if err := validTemperature("llm.generation_temperature", c.LLM.GenerationTemperature); err != nil {
		return err
	}
	if err := validTemperature("llm.audit_temperature", c.LLM.AuditTemperature); err != nil {
		return err
	}
	if err := validTemperature("llm.classify_temperature", c.LLM.ClassifyTemperature); err != nil {
		return err
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must be non-negative")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must be non-negative")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}

	if c.Retrieval.MaxResults <= 0 {
		return fmt.Errorf("retrieval.max_results must be positive")
	}
	if c.Retrieval.MinConfidence != "" && knowledge.Confidence(c.Retrieval.MinConfidence).Rank() == 0 {
		return fmt.Errorf("invalid retrieval.min_confidence %q: must be one of high, medium, low", c.Retrieval.MinConfidence)
	}

	switch pipeline.Mode(c.Pipeline.Mode) {
	case "", pipeline.ModeStructured, pipeline.ModeLegacy:
	default:
		return fmt.Errorf("invalid pipeline.mode %q: must be structured or legacy", c.Pipeline.Mode)
	}

	if c.IntentCacheTTLMinutes < 0 {
		return fmt.Errorf("intent_cache_ttl_minutes must be non-negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	return nil
}

func validTemperature(field string, t float64) error {
	if t < 0 || t > 2 {
		return fmt.Errorf("%s must be between 0 and 2, got %g", field, t)
	}
	return nil
}

// RetrievalOptions converts the retrieval section.
func (c *Config) RetrievalOptions() retrieval.Options {
	minConf := knowledge.Confidence(c.Retrieval.MinConfidence)
	if minConf == "" {
		minConf = knowledge.Low
	}
	return retrieval.Options{
		MaxResults:                c.Retrieval.MaxResults,
		IncludeRelatedDisciplines: c.Retrieval.IncludeRelatedDisciplines,
		PreferHighConfidence:      c.Retrieval.PreferHighConfidence,
		MinConfidence:             minConf,
		Contexts:                  append([]string(nil), c.Retrieval.Contexts...),
	}
}

// PipelineConfig converts the generation settings.
func (c *Config) PipelineConfig() pipeline.Config {
	mode := pipeline.Mode(c.Pipeline.Mode)
	if mode == "" {
		mode = pipeline.ModeStructured
	}
	return pipeline.Config{
		Model:                 c.Model,
		MaxTokens:             c.LLM.MaxTokens,
		GenerationTemperature: c.LLM.GenerationTemperature,
		AuditTemperature:      c.LLM.AuditTemperature,
		CallTimeout:           time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		Mode:                  mode,
		Retrieval:             c.RetrievalOptions(),
	}
}

// RunOptions returns the default per-request switches.
func (c *Config) RunOptions() pipeline.RunOptions {
	return pipeline.RunOptions{
		EnableAuditor:     c.Pipeline.EnableAuditor,
		IncludeReferences: c.Pipeline.IncludeReferences,
	}
}

// IntentCacheTTL is zero when caching is disabled.
func (c *Config) IntentCacheTTL() time.Duration {
	return time.Duration(c.IntentCacheTTLMinutes) * time.Minute
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
