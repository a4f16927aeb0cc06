package mcp

import "encoding/json"

// Method names handled by the dispatcher (spec.md §4.1: "The core must
// accept at minimum: initialize, tools/list, tools/call, and the
// corresponding notifications").
const (
	MethodInitialize             = "initialize"
	MethodInitializedNotify      = "notifications/initialized"
	MethodToolsList              = "tools/list"
	MethodToolsCall              = "tools/call"
	MethodCancelledNotify        = "notifications/cancelled"
	ProtocolVersion              = "2025-03-26"
)

// InitializeRequest is the client's initialize handshake payload.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult is the server's initialize handshake reply.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
}

// ListToolsRequest requests the full tool catalog. Pagination is not
// modeled: the catalog is small and fixed, so every call returns it whole.
type ListToolsRequest struct{}

// ListToolsResult returns the full tool catalog.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolRequest is a tool invocation.
type CallToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult is a tool invocation outcome, always carrying exactly one
// text content block whose body is the JSON serialization of the payload
// (spec.md §4.3 step 6) — or the payload itself when it is a plain string,
// as for the logs tool — or isError=true with a diagnostic.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult builds a successful single-text-block result.
func TextResult(text string) *CallToolResult {
	return &CallToolResult{Content: []ContentBlock{TextContent(text)}}
}

// ErrorResult builds an isError=true single-text-block result.
func ErrorResult(text string) *CallToolResult {
	return &CallToolResult{Content: []ContentBlock{TextContent(text)}, IsError: true}
}
