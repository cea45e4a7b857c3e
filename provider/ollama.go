package provider

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"mcpbridge/ollama"
)

// OllamaProvider wraps ollama.Client to implement model.Provider.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: The Ollama server URL (e.g., "http://localhost:11434").
//     If empty, defaults to "http://localhost:11434".
//   - model: The model name to use (e.g., "phi3:mini").
//     If empty, defaults to "phi3:mini".
//   - httpClient: optional; nil uses http.DefaultClient.
//
// Returns an error if the baseURL is invalid.
func NewOllamaProvider(baseURL, model string, httpClient *http.Client) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, model, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Ollama client")
	}

	return &OllamaProvider{
		client: client,
	}, nil
}

// Complete implements model.Provider.Complete via /api/generate with
// streaming disabled.
func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return p.client.Generate(ctx, prompt)
}

// GetModel implements model.Provider.GetModel (direct passthrough).
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// Ping implements model.Provider.Ping (direct passthrough).
//
// Checks if the Ollama server is reachable by listing local models.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// SupportsToolCalling reports whether the configured model is known to follow
// tool-calling instructions.
func (p *OllamaProvider) SupportsToolCalling() bool {
	return ollama.ModelSupportsToolCalling(p.client.GetModel())
}

// ListModels returns the models installed on the Ollama server.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return p.client.ListModels(ctx)
}
