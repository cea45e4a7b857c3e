package testutil

import (
	"context"
	"sync"

	"mcpbridge/model"
)

// MockProvider implements model.Provider for testing. Every call is recorded.
type MockProvider struct {
	// Configurable responses
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
	PingFunc     func(ctx context.Context) error

	mu           sync.Mutex
	prompts      []string
	currentModel string
}

// NewMockProvider creates a mock provider with default implementations
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{
		currentModel: modelName,
	}
	mock.CompleteFunc = mock.defaultComplete
	mock.PingFunc = mock.defaultPing
	return mock
}

func (m *MockProvider) defaultComplete(ctx context.Context, prompt string) (string, error) {
	return "Mock response", nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, prompt)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// Prompts returns every prompt received so far, in order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Calls returns the number of Complete calls.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// ScriptedReplies returns a CompleteFunc that hands out replies in order and
// repeats the last one when the script runs out.
func ScriptedReplies(replies ...string) func(ctx context.Context, prompt string) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, prompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			return "", nil
		}
		r := replies[i]
		if i < len(replies)-1 {
			i++
		}
		return r, nil
	}
}

// MockToolCaller implements model.ToolCaller for testing. Every call is recorded.
type MockToolCaller struct {
	CallToolFunc func(ctx context.Context, name string, args map[string]any) model.ToolResponse

	mu    sync.Mutex
	calls []model.ToolCall
}

// NewMockToolCaller creates a tool caller that answers every call with text.
func NewMockToolCaller(text string) *MockToolCaller {
	return &MockToolCaller{
		CallToolFunc: func(ctx context.Context, name string, args map[string]any) model.ToolResponse {
			return model.TextResponse(text)
		},
	}
}

func (m *MockToolCaller) CallTool(ctx context.Context, name string, args map[string]any) model.ToolResponse {
	copied := make(map[string]any, len(args))
	for k, v := range args {
		copied[k] = v
	}
	m.mu.Lock()
	m.calls = append(m.calls, model.ToolCall{Name: name, Arguments: copied})
	m.mu.Unlock()
	return m.CallToolFunc(ctx, name, args)
}

// Calls returns every recorded call, in order.
func (m *MockToolCaller) Calls() []model.ToolCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ToolCall, len(m.calls))
	copy(out, m.calls)
	return out
}
