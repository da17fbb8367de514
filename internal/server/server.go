package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/image-stipple-mcp/internal/config"
	"github.com/ironsheep/image-stipple-mcp/internal/imaging"
	"github.com/ironsheep/image-stipple-mcp/internal/pipeline"
	"github.com/ironsheep/image-stipple-mcp/internal/store"
)

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

// JSON-RPC error codes used by the server.
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	runner   *pipeline.Runner
	defaults config.StippleConfig
	logger   *log.Logger
	version  string
}

// Options configure a Server. The zero value uses built-in defaults, no
// result store and a discarding logger.
type Options struct {
	Config  config.Config
	Store   *store.Store
	Logger  *log.Logger
	Version string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == (config.Config{}) {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	cache := imaging.NewImageCache()
	return &Server{
		cache:    cache,
		runner:   pipeline.NewRunner(cache, opts.Store, logger),
		defaults: cfg.Stipple,
		logger:   logger,
		version:  version,
	}
}

// Run serves MCP over stdin and stdout until stdin closes or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w. It returns when r is exhausted or ctx is cancelled, even
// while waiting for input.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lines, scanErr := scanLines(ctx, r)
	encoder := json.NewEncoder(w)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			line = l
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Error("failed to parse request", "err", err)
			continue
		}

		s.logger.Debug("request", "method", req.Method, "id", req.ID)
		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "err", err)
			}
		}
	}
}

// scanLines reads r line by line on its own goroutine. The lines channel is
// closed after exactly one value (nil on EOF) has been sent on the error
// channel. A blocked read outlives ctx; its goroutine exits on the next line
// or when r is closed.
func scanLines(ctx context.Context, r io.Reader) (<-chan []byte, <-chan error) {
	lines := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 16*1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- fmt.Errorf("scanner error: %w", err)
			return
		}
		errc <- nil
	}()

	return lines, errc
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    codeMethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "image-stipple-mcp",
				"version": s.version,
			},
		},
	}
}
