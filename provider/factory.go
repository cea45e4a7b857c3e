package provider

import (
	"github.com/pkg/errors"

	"mcpbridge/model"
)

// NewProvider builds the single-attempt backend named by cfg.Type. The
// result does not retry; wrap it in a Gateway for the chat loop.
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:    provider.ProviderTypeOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model:   "llama3.2",
//	})
func NewProvider(cfg Config) (model.Provider, error) {
	// Each case checks err itself so a failed constructor never leaks a typed
	// nil inside a non-nil interface.
	switch cfg.Type {
	case ProviderTypeOllama:
		p, err := NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeOpenRouter:
		p, err := NewOpenRouterProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeOpenAI:
		p, err := NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeAnthropic:
		p, err := NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// MapProviderIDToType converts the provider name used in config.toml and on
// the command line to a ProviderType. Unknown names pass through unchanged
// and are rejected by NewProvider.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "ollama":
		return ProviderTypeOllama
	case "openrouter":
		return ProviderTypeOpenRouter
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic":
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}
