package config

// ModelPreset describes the default models for a provider.
type ModelPreset struct {
	Model          string
	EmbeddingModel string
}

var modelPresets = map[ProviderType]ModelPreset{
	ProviderAnthropic: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-small"},
	ProviderOpenAI:    {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama:    {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with the reference settings.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderAnthropic,
		Model:             "claude-sonnet-4-5-20250929",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		IndexDir:          ".interlingua/index",
		LLM: LLMConfig{
			TimeoutSeconds:        60,
			GenerationTemperature: 0.7,
			AuditTemperature:      0.3,
			ClassifyTemperature:   0.2,
			MaxTokens:             4096,
		},
		Retrieval: RetrievalConfig{
			MaxResults:                5,
			MinConfidence:             "low",
			IncludeRelatedDisciplines: true,
			PreferHighConfidence:      true,
		},
		Pipeline: PipelineConfig{
			Mode:              "structured",
			EnableAuditor:     true,
			IncludeReferences: true,
		},
		IntentCacheTTLMinutes: 30,
		Server: ServerConfig{
			Port:            8080,
			AllowAllOrigins: true,
		},
	}
}

// GetPreset returns the model preset for provider, or the Anthropic preset
// when the provider is unknown.
func GetPreset(provider ProviderType) ModelPreset {
	if p, ok := modelPresets[provider]; ok {
		return p
	}
	return modelPresets[ProviderAnthropic]
}
