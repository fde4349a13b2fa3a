package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level interlingua configuration, corresponding to .interlingua.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	// KnowledgePaths are doublestar globs of YAML knowledge files. Empty
	// selects the embedded sample corpus.
	KnowledgePaths []string `yaml:"knowledge_paths" koanf:"knowledge_paths"`
	SemanticSearch bool     `yaml:"semantic_search" koanf:"semantic_search"`
	// IndexDir holds the persisted semantic index built by `interlingua index`.
	IndexDir              string          `yaml:"index_dir" koanf:"index_dir"`
	LLM                   LLMConfig       `yaml:"llm" koanf:"llm"`
	Retrieval             RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Pipeline              PipelineConfig  `yaml:"pipeline" koanf:"pipeline"`
	IntentCacheTTLMinutes int             `yaml:"intent_cache_ttl_minutes" koanf:"intent_cache_ttl_minutes"`
	// HistoryPath is the SQLite file answers are recorded in. Empty disables history.
	HistoryPath string       `yaml:"history_path" koanf:"history_path"`
	Server      ServerConfig `yaml:"server" koanf:"server"`
}

// LLMConfig holds per-call generation settings.
type LLMConfig struct {
	TimeoutSeconds        int     `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	RequestsPerMinute     int     `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	GenerationTemperature float64 `yaml:"generation_temperature" koanf:"generation_temperature"`
	AuditTemperature      float64 `yaml:"audit_temperature" koanf:"audit_temperature"`
	ClassifyTemperature   float64 `yaml:"classify_temperature" koanf:"classify_temperature"`
	MaxTokens             int     `yaml:"max_tokens" koanf:"max_tokens"`
}

// RetrievalConfig mirrors retrieval.Options.
type RetrievalConfig struct {
	MaxResults                int      `yaml:"max_results" koanf:"max_results"`
	MinConfidence             string   `yaml:"min_confidence" koanf:"min_confidence"`
	IncludeRelatedDisciplines bool     `yaml:"include_related_disciplines" koanf:"include_related_disciplines"`
	PreferHighConfidence      bool     `yaml:"prefer_high_confidence" koanf:"prefer_high_confidence"`
	Contexts                  []string `yaml:"contexts" koanf:"contexts"`
}

// PipelineConfig holds orchestration switches.
type PipelineConfig struct {
	Mode              string `yaml:"mode" koanf:"mode"`
	EnableAuditor     bool   `yaml:"enable_auditor" koanf:"enable_auditor"`
	IncludeReferences bool   `yaml:"include_references" koanf:"include_references"`
}

// ServerConfig holds settings for `interlingua serve`.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
