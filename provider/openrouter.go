package provider

import (
	"net/http"

	"github.com/pkg/errors"
)

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter, which is
// OpenAI-compatible.
type OpenRouterProvider = OpenAIProvider

// NewOpenRouterProvider creates a new OpenRouter provider instance.
//
// Parameters:
//   - baseURL: OpenRouter API base URL ("https://openrouter.ai/api/v1")
//   - apiKey: OpenRouter API key (required)
//   - model: model to use, with vendor prefix
func NewOpenRouterProvider(baseURL, apiKey, model string, httpClient *http.Client) (*OpenRouterProvider, error) {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if apiKey == "" {
		return nil, errors.New("OpenRouter API key is required")
	}
	if model == "" {
		model = "meta-llama/llama-3.2-3b-instruct"
	}

	return newOpenAICompatible("openrouter", baseURL, apiKey, model, httpClient), nil
}
