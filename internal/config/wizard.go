package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .interlingua.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to interlingua! Let's configure your workspace.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"anthropic", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := GetPreset(provider)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: preset.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Knowledge base.
	knowledgePrompt := promptui.Prompt{
		Label:   "Knowledge base globs (comma-separated, leave blank for the sample corpus)",
		Default: "",
	}
	knowledgeStr, err := knowledgePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("knowledge paths: %w", err)
	}

	// 4. Generation mode.
	modePrompt := promptui.Select{
		Label: "Generation mode",
		Items: []string{
			"structured - JSON article, validated and rendered",
			"legacy     - streamed Markdown",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mode selection: %w", err)
	}

	// 5. Semantic search.
	semanticPrompt := promptui.Select{
		Label: "Enable semantic search (requires `interlingua index`)",
		Items: []string{"no", "yes"},
	}
	semanticIdx, _, err := semanticPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.EmbeddingProvider = embeddingProviderFor(provider)
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.KnowledgePaths = splitAndTrim(knowledgeStr)
	cfg.SemanticSearch = semanticIdx == 1
	cfg.Pipeline.Mode = []string{"structured", "legacy"}[modeIdx]

	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running interlingua ask.\n", envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all cloud providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}

// splitAndTrim splits a comma-separated string and drops empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
