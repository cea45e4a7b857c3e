package model

import (
	"context"
)

// Provider abstracts the text-completion backends (Ollama, OpenAI, OpenRouter,
// Anthropic) behind a single prompt → text call.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations import model, and the chat loop can use
// the Provider interface without importing the provider package.
type Provider interface {
	// Complete sends a single prompt and returns the full, non-streamed reply.
	// Implementations make exactly one attempt; retries belong to the gateway.
	Complete(ctx context.Context, prompt string) (string, error)

	// GetModel returns the model identifier sent with every request.
	GetModel() string

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// Completer is the narrow view of the model gateway used by the chat loop.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ToolCaller dispatches a resolved tool call and always returns a normalized
// response, never an error.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) ToolResponse
}
