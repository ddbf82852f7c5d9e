package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimharvest/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "", "none", "heuristic":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", config.Provider)
	}
}

// ConfigFromModel builds a provider config for the component selecting provider
func ConfigFromModel(provider string, modelConfig model.LLMConfig) Config {
	return Config{
		Provider:  provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.TimeoutSeconds,
		MaxTokens: modelConfig.MaxTokens,
	}
}
