// Package provider implements the text-completion backends and the model
// gateway that wraps them.
//
// The bridge only ever needs prompt → text from a language model, so every
// backend implements model.Provider with a single non-streaming Complete call:
//   - OllamaProvider: local Ollama server, /api/generate (default)
//   - OpenAIProvider: OpenAI chat completions
//   - OpenRouterProvider: OpenRouter through the OpenAI SDK
//   - AnthropicProvider: Anthropic messages API
//
// Backends make exactly one attempt per call and disable SDK-level retries.
// Gateway adds the retry bound, the per-attempt timeout and the sentinel text
// returned once retries are exhausted.
//
// # Usage
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:    provider.ProviderTypeOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model:   "phi3:mini",
//	})
//	if err != nil {
//	    // handle error
//	}
//	gw := provider.NewGateway(p, provider.GatewayOptions{MaxAttempts: 3, Delay: time.Second}, logger)
//	text, err := gw.Complete(ctx, "Hello")
package provider

import (
	"net/http"
)

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // For cloud providers (unused for Ollama)

	// HTTPClient is used for every request when set. Its Timeout is the hard
	// upper bound of a single attempt.
	HTTPClient *http.Client
}
