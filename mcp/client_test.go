package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpbridge/model"
)

// fakeServer is a scripted stand-in for the tool server.
type fakeServer struct {
	t       *testing.T
	mu      sync.Mutex
	reqs    []rpcRequest
	params  []callToolParams
	respond func(n int, req rpcRequest, w http.ResponseWriter)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
		return
	}

	var raw struct {
		rpcRequest
		Params json.RawMessage `json:"params"`
	}
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&raw))
	assert.Equal(f.t, "application/json", r.Header.Get("Content-Type"))

	var p callToolParams
	if len(raw.Params) > 0 {
		assert.NoError(f.t, json.Unmarshal(raw.Params, &p))
	}

	f.mu.Lock()
	f.reqs = append(f.reqs, raw.rpcRequest)
	f.params = append(f.params, p)
	n := len(f.reqs)
	f.mu.Unlock()

	f.respond(n, raw.rpcRequest, w)
}

func (f *fakeServer) requests() []rpcRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rpcRequest(nil), f.reqs...)
}

func writeText(w http.ResponseWriter, id int64, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []mcptypes.Content{mcptypes.NewTextContent(text)},
		},
	})
}

func newFake(t *testing.T, respond func(n int, req rpcRequest, w http.ResponseWriter)) (*fakeServer, *Client) {
	t.Helper()
	fake := &fakeServer{t: t, respond: respond}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		Endpoint:    server.URL + "/mcp",
		MaxAttempts: 2,
		Delay:       time.Second,
		Timeout:     5 * time.Second,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}, zerolog.Nop())
	require.NoError(t, err)
	return fake, client
}

func TestCallToolSuccess(t *testing.T) {
	fake, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
		writeText(w, req.ID, "The current temperature in Chennai is 31°C with light rain.")
	})

	resp := client.CallTool(context.Background(), model.ToolGetWeather, map[string]any{model.ArgCity: "Chennai"})

	assert.True(t, resp.OK())
	assert.Equal(t, "The current temperature in Chennai is 31°C with light rain.", resp.Text)

	reqs := fake.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "2.0", reqs[0].JSONRPC)
	assert.Equal(t, MethodCallTool, reqs[0].Method)
	assert.Equal(t, model.ToolGetWeather, fake.params[0].Tool)
	assert.Equal(t, map[string]any{model.ArgCity: "Chennai"}, fake.params[0].Arguments)
}

func TestCallToolIDsIncrease(t *testing.T) {
	fake, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
		writeText(w, req.ID, "ok")
	})

	for i := 0; i < 3; i++ {
		client.CallTool(context.Background(), model.ToolGetWeather, map[string]any{model.ArgCity: "Paris"})
	}

	reqs := fake.requests()
	require.Len(t, reqs, 3)
	assert.Greater(t, reqs[0].ID, time.Now().Add(-time.Hour).Unix())
	assert.Less(t, reqs[0].ID, reqs[1].ID)
	assert.Less(t, reqs[1].ID, reqs[2].ID)
}

func TestCallToolRetriesThenSucceeds(t *testing.T) {
	fake, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
		if n == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		writeText(w, req.ID, "sent")
	})

	resp := client.CallTool(context.Background(), model.ToolSendNotification,
		map[string]any{model.ArgNotificationInput: "hi|general_alerts"})

	assert.Equal(t, model.TextResponse("sent"), resp)
	assert.Len(t, fake.requests(), 2)
}

func TestCallToolExhaustion(t *testing.T) {
	fake, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
		http.Error(w, strings.Repeat("boom ", 100), http.StatusInternalServerError)
	})

	resp := client.CallTool(context.Background(), model.ToolGetWeather, map[string]any{model.ArgCity: "Chennai"})

	assert.True(t, resp.Failed())
	assert.Equal(t, "MCP call failed for get_weather", resp.Err)
	assert.Len(t, fake.requests(), 2)
}

func TestCallToolTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/mcp"
	server.Close()

	client, err := NewClient(Options{
		Endpoint:    endpoint,
		MaxAttempts: 2,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}, zerolog.Nop())
	require.NoError(t, err)

	resp := client.CallTool(context.Background(), model.ToolGetWeather, nil)
	assert.Equal(t, "MCP call failed for get_weather", resp.Err)
}

func TestCallToolRPCErrorIsNotRetried(t *testing.T) {
	fake, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32601, "message": "Unknown method"},
		})
	})

	resp := client.CallTool(context.Background(), model.ToolGetWeather, map[string]any{model.ArgCity: "Chennai"})

	assert.True(t, resp.Failed())
	assert.Contains(t, resp.Err, "Unknown method")
	assert.Len(t, fake.requests(), 1)
}

func TestCallToolMalformedBody(t *testing.T) {
	fake, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	resp := client.CallTool(context.Background(), model.ToolGetWeather, map[string]any{model.ArgCity: "Chennai"})

	assert.True(t, resp.Failed())
	assert.Contains(t, resp.Err, "malformed")
	assert.Len(t, fake.requests(), 1)
}

func TestCallToolMissingContentGivesEmptyText(t *testing.T) {
	tests := map[string]string{
		"no result":     `{"jsonrpc":"2.0","id":1}`,
		"empty content": `{"jsonrpc":"2.0","id":1,"result":{"content":[]}}`,
		"no text":       `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"image"}]}}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
				_, _ = w.Write([]byte(body))
			})

			resp := client.CallTool(context.Background(), model.ToolGetWeather, nil)
			assert.Empty(t, resp.Err)
			assert.Empty(t, resp.Text)
			assert.False(t, resp.OK())
		})
	}
}

func TestListTools(t *testing.T) {
	_, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
		assert.Equal(t, MethodListTools, req.Method)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]any{"tools": DefaultTools()},
		})
	})

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, model.ToolGetWeather, tools[0].Name)
	assert.Equal(t, []string{model.ArgCity}, tools[0].InputSchema.Required)
	assert.Equal(t, model.ToolSendNotification, tools[1].Name)
}

func TestListToolsRejectsBadShape(t *testing.T) {
	_, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"tools":"nope"}}`))
	})

	_, err := client.ListTools(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.KindMalformed, model.KindOf(err))
}

func TestHealth(t *testing.T) {
	_, client := newFake(t, func(n int, req rpcRequest, w http.ResponseWriter) {})
	assert.NoError(t, client.Health(context.Background()))
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "localhost:9000/mcp", "ftp://host/mcp", "://bad"} {
		_, err := NewClient(Options{Endpoint: endpoint}, zerolog.Nop())
		assert.Error(t, err, endpoint)
	}
}

func TestTruncateUsesDisplayWidth(t *testing.T) {
	assert.Equal(t, "short", truncate([]byte("  short\n")))

	long := truncate([]byte(strings.Repeat("界", 150)))
	assert.LessOrEqual(t, len([]rune(long)), 101)
	assert.True(t, strings.HasSuffix(long, "…"))
}
