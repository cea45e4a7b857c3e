package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"
)

const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "phi3:mini"
)

// ErrEmptyReply is returned when the server answered without any response object.
var ErrEmptyReply = errors.New("ollama returned no response object")

type Client struct {
	client *api.Client
	model  string
}

type ModelInfo struct {
	Name string
	Size int64
}

// NewClient creates a client for the Ollama server at baseURL. httpClient may
// be nil, in which case http.DefaultClient is used.
func NewClient(baseURL, model string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultHost
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid Ollama URL")
	}

	return &Client{
		client: api.NewClient(parsedURL, httpClient),
		model:  model,
	}, nil
}

// Generate sends prompt to /api/generate with streaming disabled and returns
// the complete response text. It makes exactly one attempt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: func(b bool) *bool { return &b }(false),
	}

	var (
		sb       strings.Builder
		received bool
	)
	respFunc := func(resp api.GenerateResponse) error {
		received = true
		sb.WriteString(resp.Response)
		return nil
	}

	if err := c.client.Generate(ctx, req, respFunc); err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", errors.Errorf("ollama returned HTTP %d: %s", statusErr.StatusCode, statusErr.ErrorMessage)
		}
		return "", errors.Wrap(err, "ollama generate")
	}
	if !received {
		return "", ErrEmptyReply
	}

	return sb.String(), nil
}

func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list models")
	}

	models := make([]ModelInfo, len(resp.Models))
	for i, model := range resp.Models {
		models[i] = ModelInfo{
			Name: model.Name,
			Size: model.Size,
		}
	}

	return models, nil
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}

// toolCallingModels tracks which model families follow tool-calling
// instructions reliably. Models outside this list are the ones that most
// often ignore the JSON reply contract.
var toolCallingModels = map[string]bool{
	"qwen":      true,
	"llama3.1":  true,
	"llama3.2":  true,
	"llama3.3":  true,
	"mistral":   true,
	"command-r": true,
	"nemotron":  true,
	"granite3":  true,

	"llama3-gradient": false,
	"llama3":          false, // Original llama3 (not 3.1/3.2/3.3)
	"phi":             false,
	"gemma":           false,
	"codellama":       false,
	"deepseek":        false,
}

// orderedPrefixes defines the order to check model prefixes
// IMPORTANT: Check most specific prefixes first to avoid false matches
// (e.g., check "llama3.2" before "llama3" to avoid matching llama3.2 as generic llama3)
var orderedPrefixes = []string{
	"llama3.3", "llama3.2", "llama3.1",
	"llama3-gradient",
	"command-r", "qwen", "mistral", "nemotron", "granite3",
	"codellama",
	"llama3",
	"deepseek", "phi", "gemma",
}

// ModelSupportsToolCalling reports whether modelName belongs to a family
// known to follow tool-calling instructions. Unknown models report false.
func ModelSupportsToolCalling(modelName string) bool {
	modelName = strings.ToLower(modelName)

	for _, prefix := range orderedPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			return toolCallingModels[prefix]
		}
	}

	return false
}
