package mcp

import (
	"encoding/json"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes surfaced by the server. CodeResourceExhausted is
// an implementation-defined code used for clear-cooldown rejections so
// callers can tell "try again later" apart from "the tool broke".
const (
	CodeParseError        = -32700
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
	CodeInternalError     = -32603
	CodeResourceExhausted = -32002
)

type ContentType string

const (
	ContentTypeText ContentType = "text"
)

// Message is a JSON-RPC 2.0 request, response, or notification. ID is kept
// raw so the response echoes whatever shape the caller sent.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type Content struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// ToolResult is the result payload of a tools/call. IsError marks tool-level
// failures that are data to the protocol, not protocol errors.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Tool describes one callable tool for tools/list.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      serverInfo             `json:"serverInfo"`
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func textResult(text string) *ToolResult {
	return &ToolResult{Content: []Content{{Type: ContentTypeText, Text: text}}}
}
