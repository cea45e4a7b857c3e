package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"mcpbridge/model"
	"mcpbridge/retry"
)

// maxLoggedBody is the display width of response bodies quoted in logs.
const maxLoggedBody = 200

// maxBodyBytes caps how much of a reply is read.
const maxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	// Endpoint is the JSON-RPC URL, e.g. http://localhost:9000/mcp.
	Endpoint string

	MaxAttempts int
	Delay       time.Duration
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
	// Sleep replaces the wait between attempts (tests).
	Sleep retry.Sleeper
}

// Client talks JSON-RPC over HTTP to the tool server. It is safe for
// concurrent use.
type Client struct {
	endpoint  string
	healthURL string
	http      *http.Client
	policy    retry.Policy
	sleep     retry.Sleeper
	nextID    atomic.Int64
	logger    zerolog.Logger
}

var _ model.ToolCaller = (*Client)(nil)

// NewClient validates the endpoint and returns a ready client.
func NewClient(opts Options, logger zerolog.Logger) (*Client, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid MCP endpoint")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid MCP endpoint %q: scheme must be http or https", opts.Endpoint)
	}

	health := *u
	health.Path = "/health"
	health.RawQuery = ""

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		endpoint:  opts.Endpoint,
		healthURL: health.String(),
		http:      httpClient,
		policy: retry.Policy{
			MaxAttempts:    opts.MaxAttempts,
			Delay:          opts.Delay,
			AttemptTimeout: opts.Timeout,
		},
		sleep:  opts.Sleep,
		logger: logger.With().Str("component", "mcp").Logger(),
	}
	// Seeding from the clock keeps ids distinct across restarts against a
	// long-lived server.
	c.nextID.Store(time.Now().Unix())

	return c, nil
}

// Endpoint returns the JSON-RPC URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CallTool dispatches mcp/call_tool and normalizes the outcome. It never
// returns an error: failures come back as an error-tagged ToolResponse.
//
// Transport errors and non-200 statuses are retried up to the attempt bound.
// A JSON-RPC error object or an unparsable body is final.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) model.ToolResponse {
	logger := c.logger.With().Str("tool", name).Logger()
	if args == nil {
		args = map[string]any{}
	}

	reply, attempts, err := c.exchange(ctx, logger, MethodCallTool, callToolParams{Tool: name, Arguments: args})
	if err != nil {
		logger.Error().Err(err).Int("attempts", attempts).Msg("tool call failed after retries")
		return model.ErrorResponse(fmt.Sprintf("MCP call failed for %s", name))
	}

	if !gjson.ValidBytes(reply.Body) {
		logger.Warn().Str("body", truncate(reply.Body)).Msg("tool server returned malformed JSON")
		return model.ErrorResponse(fmt.Sprintf("malformed response from tool server for %s", name))
	}

	if rpcErr, ok := decodeRPCError(reply.Body); ok {
		logger.Warn().Int("code", rpcErr.Code).Str("message", rpcErr.Message).Msg("tool server returned an error")
		return model.ErrorResponse(fmt.Sprintf("tool %s failed: %s", name, rpcErr.Message))
	}

	text := gjson.GetBytes(reply.Body, "result.content.0.text").String()
	if text == "" {
		logger.Warn().Msg("empty tool result received")
	} else {
		logger.Debug().Int("attempts", attempts).Str("result", truncate([]byte(text))).Msg("tool result received")
	}

	return model.TextResponse(text)
}

// ListTools asks the server for its tool definitions.
func (c *Client) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	reply, attempts, err := c.exchange(ctx, c.logger, MethodListTools, nil)
	if err != nil {
		return nil, model.NewTransportError("list tools", attempts, err)
	}

	if !gjson.ValidBytes(reply.Body) {
		return nil, model.NewMalformedError("list tools", errors.Errorf("invalid JSON: %s", truncate(reply.Body)))
	}
	if rpcErr, ok := decodeRPCError(reply.Body); ok {
		return nil, errors.Errorf("list tools: server error %d: %s", rpcErr.Code, rpcErr.Message)
	}

	raw := gjson.GetBytes(reply.Body, "result.tools")
	if !raw.IsArray() {
		return nil, model.NewMalformedError("list tools", errors.New("result.tools is not an array"))
	}

	var tools []mcptypes.Tool
	if err := json.Unmarshal([]byte(raw.Raw), &tools); err != nil {
		return nil, model.NewMalformedError("list tools", err)
	}

	c.logger.Debug().Int("count", len(tools)).Msg("tool server returned tools")
	return tools, nil
}

// Health checks the server's /health endpoint once.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build health request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.NewTransportError("health check", 1, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode != http.StatusOK {
		return model.NewTransportError("health check", 1,
			errors.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body)))
	}

	if status := gjson.GetBytes(body, "status"); status.Exists() && status.String() != "healthy" {
		return errors.Errorf("tool server reports status %q", status.String())
	}
	return nil
}

// exchange POSTs one JSON-RPC request under the retry policy and returns the
// first 200 reply.
func (c *Client) exchange(ctx context.Context, logger zerolog.Logger, method string, params any) (httpReply, int, error) {
	var reply httpReply

	attempts, err := retry.Do(ctx, c.policy, c.sleep, func(ctx context.Context, attempt int) error {
		req := rpcRequest{
			JSONRPC: jsonRPCVersion,
			ID:      c.nextID.Add(1),
			Method:  method,
			Params:  params,
		}

		r, err := c.post(ctx, req)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Str("method", method).Msg("MCP request failed")
			return err
		}
		if r.Status != http.StatusOK {
			logger.Warn().
				Int("attempt", attempt).
				Int("status", r.Status).
				Str("method", method).
				Str("body", truncate(r.Body)).
				Msg("MCP request failed")
			return errors.Errorf("HTTP %d", r.Status)
		}

		reply = r
		return nil
	})

	return reply, attempts, err
}

func (c *Client) post(ctx context.Context, rpcReq rpcRequest) (httpReply, error) {
	payload, err := json.Marshal(rpcReq)
	if err != nil {
		// Arguments that cannot be encoded will not encode on the next attempt either.
		return httpReply{}, retry.Stop(errors.Wrap(err, "failed to encode request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return httpReply{}, retry.Stop(errors.Wrap(err, "failed to build request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return httpReply{}, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return httpReply{}, errors.Wrap(err, "failed to read response")
	}

	return httpReply{Status: resp.StatusCode, Body: body}, nil
}

// decodeRPCError reports the JSON-RPC error member of body, if any.
func decodeRPCError(body []byte) (rpcError, bool) {
	raw := gjson.GetBytes(body, "error")
	if !raw.Exists() || raw.Type == gjson.Null {
		return rpcError{}, false
	}

	var rpcErr rpcError
	if raw.IsObject() {
		if err := json.Unmarshal([]byte(raw.Raw), &rpcErr); err == nil && rpcErr.Message != "" {
			return rpcErr, true
		}
	}
	rpcErr.Message = raw.String()
	return rpcErr, true
}

// truncate shortens body to maxLoggedBody display cells for log lines.
func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	return runewidth.Truncate(s, maxLoggedBody, "…")
}
