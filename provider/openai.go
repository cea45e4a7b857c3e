package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"

	"mcpbridge/model"
)

// OpenAIProvider implements model.Provider using OpenAI's official Go SDK.
// OpenRouter reuses it with a different base URL.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
	name    string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: model to use (default: "gpt-4o-mini")
//
// Returns an error if the API key is missing.
func NewOpenAIProvider(baseURL, apiKey, model string, httpClient *http.Client) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return newOpenAICompatible("openai", baseURL, apiKey, model, httpClient), nil
}

func newOpenAICompatible(name, baseURL, apiKey, model string, httpClient *http.Client) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		// The gateway owns the retry budget.
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		model:   model,
		baseURL: baseURL,
		name:    name,
	}
}

// Complete implements model.Provider.Complete with a single non-streaming
// chat completion carrying prompt as the only user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(p.model),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "%s chat completion", p.name)
	}
	if len(resp.Choices) == 0 {
		return "", model.NewMalformedError(p.name+" chat completion", errors.New("response has no choices"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GetModel implements model.Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// Ping implements model.Provider.Ping by attempting to list models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return errors.Wrapf(err, "%s ping failed", p.name)
	}
	return nil
}
