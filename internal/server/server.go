package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/ironsheep/image-stats-mcp/internal/analyzer"
	"github.com/ironsheep/image-stats-mcp/internal/config"
	"github.com/ironsheep/image-stats-mcp/internal/decode"
	"github.com/ironsheep/image-stats-mcp/internal/imaging"
	"github.com/ironsheep/image-stats-mcp/internal/toolchain"
)

// Version is reported in the initialize handshake. main overrides it with
// the build version.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cache *imaging.RegionCache

	// single serves per-image tools and reuses decoded regions from cache.
	single *analyzer.Analyzer
	// batch analyses directories without caching.
	batch *analyzer.Analyzer
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

// New creates a new MCP server instance from cfg.
func New(cfg *config.Config) *Server {
	var logger *log.Logger
	if cfg.Debug {
		logger = log.Default()
	}
	ff := toolchain.NewFFmpeg(cfg.FFmpeg, &toolchain.ExecRunner{Logger: logger})
	cache := imaging.NewRegionCache()

	return &Server{
		cache: cache,
		single: analyzer.New(
			decode.New(decode.Options{FFmpeg: ff, Cache: cache, Logger: logger}),
			analyzer.Options{Workers: cfg.Workers, Logger: logger},
		),
		batch: analyzer.New(
			decode.New(decode.Options{FFmpeg: ff, Logger: logger}),
			analyzer.Options{Workers: cfg.Workers, Logger: logger},
		),
	}
}

// Run reads requests from in and writes responses to out until in is
// exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
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
				Code:    -32601,
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
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "image-stats-mcp",
				"version": Version,
			},
		},
	}
}
