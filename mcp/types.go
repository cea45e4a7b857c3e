package mcp

import (
	"encoding/json"
)

// JSON-RPC methods exposed by the tool server.
const (
	MethodCallTool  = "mcp/call_tool"
	MethodListTools = "mcp/list_tools"

	jsonRPCVersion = "2.0"
)

// rpcRequest is the JSON-RPC 2.0 envelope POSTed to the tool endpoint.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// callToolParams is the params object of mcp/call_tool. The server keys the
// tool by "tool", not the "name" used by stock MCP.
type callToolParams struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// rpcError is the error member of a JSON-RPC reply.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// httpReply is one raw exchange with the server.
type httpReply struct {
	Status int
	Body   []byte
}
