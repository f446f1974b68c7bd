// Package mcp implements the stdio MCP surface of the documentation
// server: a line-delimited JSON-RPC 2.0 loop dispatching the fetchDocs,
// clearCache, and listSources tools.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jenny-s51/patternfly-mcp/cache"
	"github.com/jenny-s51/patternfly-mcp/docs"
	"github.com/jenny-s51/patternfly-mcp/logger"
)

const serverName = "patternfly-mcp"

// Version is stamped at build time.
var Version = "dev"

// maxLineBytes bounds a single incoming message.
const maxLineBytes = 10 * 1024 * 1024

// ServerConfig assembles a Server.
type ServerConfig struct {
	Aggregator *docs.Aggregator
	Guard      *cache.ClearGuard
	Logger     logger.Logger
	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer
}

// Server reads newline-delimited JSON-RPC messages from In and writes
// responses to Out. Requests are handled concurrently; writes are
// serialized.
type Server struct {
	log   logger.Logger
	agg   *docs.Aggregator
	guard *cache.ClearGuard
	in    io.Reader
	out   io.Writer

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// NewServer builds a Server from cfg.
func NewServer(cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.NewConsoleLogger()
	}
	in := cfg.In
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &Server{
		log:   log.WithPrefix("[mcp]"),
		agg:   cfg.Aggregator,
		guard: cfg.Guard,
		in:    in,
		out:   out,
	}
}

// Run processes messages until In is exhausted or ctx is cancelled. It
// waits for in-flight handlers before returning.
func (s *Server) Run(ctx context.Context) error {
	defer s.wg.Wait()

	s.log.Info("%s %s listening on stdio", serverName, Version)
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			s.write(&Message{
				JSONRPC: "2.0",
				Error:   &Error{Code: CodeParseError, Message: "parse error"},
			})
			continue
		}
		if msg.Method == "" {
			// A response or malformed frame. Nothing to do.
			continue
		}
		if len(msg.ID) == 0 || string(msg.ID) == "null" {
			// Notification. The initialized notification is the only one we
			// expect; all are ignored.
			s.log.Trace("notification %s", msg.Method)
			continue
		}
		s.wg.Add(1)
		go func(msg Message) {
			defer s.wg.Done()
			s.write(s.handle(ctx, &msg))
		}(msg)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading stdin")
	}
	return nil
}

func (s *Server) write(msg *Message) {
	buf, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("failed to encode response: %s", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(buf, '\n')); err != nil {
		s.log.Error("failed to write response: %s", err)
	}
}

func (s *Server) handle(ctx context.Context, msg *Message) *Message {
	resp := &Message{JSONRPC: "2.0", ID: msg.ID}
	switch msg.Method {
	case "initialize":
		resp.Result = initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    map[string]interface{}{"tools": map[string]interface{}{}},
			ServerInfo:      serverInfo{Name: serverName, Version: Version},
		}
	case "ping":
		resp.Result = struct{}{}
	case "tools/list":
		resp.Result = toolsListResult{Tools: toolDefinitions()}
	case "tools/call":
		result, rpcErr := s.callTool(ctx, msg.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", msg.Method)}
	}
	return resp
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (*ToolResult, *Error) {
	var params toolCallParams
	if err := json.Unmarshal(raw, &params); err != nil || params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "tools/call requires a tool name"}
	}

	log := s.log.With(map[string]interface{}{"request": uuid.NewString(), "tool": params.Name})
	log.Debug("dispatching")

	switch params.Name {
	case "fetchDocs":
		return s.fetchDocs(ctx, log, params.Arguments)
	case "clearCache":
		return s.clearCache(log, params.Arguments)
	case "listSources":
		return s.listSources(log)
	}
	return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", params.Name)}
}

// fetchDocs loads every requested source. Per-item failures come back as
// data inside the aggregate text; only an unusable argument list is a
// protocol error.
func (s *Server) fetchDocs(ctx context.Context, log logger.Logger, raw json.RawMessage) (*ToolResult, *Error) {
	var args struct {
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "fetchDocs requires a sources array of strings"}
	}
	text, err := s.agg.LoadAll(ctx, args.Sources)
	if err != nil {
		if errors.Is(err, docs.ErrNoSources) {
			return nil, &Error{Code: CodeInvalidParams, Message: "fetchDocs requires at least one non-empty source"}
		}
		log.Error("fetchDocs failed: %s", err)
		return nil, &Error{Code: CodeInternalError, Message: "internal error"}
	}
	log.Debug("fetchDocs returned %d bytes", len(text))
	return textResult(text), nil
}

func (s *Server) clearCache(log logger.Logger, raw json.RawMessage) (*ToolResult, *Error) {
	var args struct {
		Scope string `json:"scope"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: `clearCache scope must be "url", "file", or "all"`}
		}
	}
	scope, err := cache.ParseScope(args.Scope)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: `clearCache scope must be "url", "file", or "all"`}
	}
	if err := s.guard.TryClear(scope); err != nil {
		var cooldown *cache.CooldownError
		if errors.As(err, &cooldown) {
			log.Debug("clearCache rejected, %s remaining", cooldown.Remaining)
			return nil, &Error{
				Code:    CodeResourceExhausted,
				Message: cooldown.Error(),
				Data:    map[string]interface{}{"retryAfterSeconds": cooldown.RemainingSeconds()},
			}
		}
		log.Error("clearCache failed: %s", err)
		return nil, &Error{Code: CodeInternalError, Message: "internal error"}
	}
	log.Info("cleared %s cache", scope)
	return textResult(fmt.Sprintf("Cleared the %s cache.", scope)), nil
}

func (s *Server) listSources(log logger.Logger) (*ToolResult, *Error) {
	sources := s.agg.Sources().List()
	var b strings.Builder
	for _, src := range sources {
		fmt.Fprintf(&b, "- %s: %s", src.Name, src.Location)
		if src.Description != "" {
			fmt.Fprintf(&b, " (%s)", src.Description)
		}
		b.WriteByte('\n')
	}
	log.Debug("listed %d sources", len(sources))
	return textResult(b.String()), nil
}

func toolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "fetchDocs",
			Description: "Fetch documentation content from URLs, local files, or named sources. Results are cached.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sources": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "URLs, local paths, or source names to load",
					},
				},
				"required": []string{"sources"},
			},
		},
		{
			Name:        "clearCache",
			Description: "Clear the documentation caches. Rate limited by a cooldown.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"scope": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"url", "file", "all"},
						"description": "Which cache to clear (default all)",
					},
				},
			},
		},
		{
			Name:        "listSources",
			Description: "List the named documentation sources this server knows about.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
