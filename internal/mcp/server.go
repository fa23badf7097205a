package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tallykit/tallymcp/internal/async"
	"github.com/tallykit/tallymcp/internal/cache"
	"github.com/tallykit/tallymcp/internal/config"
	"github.com/tallykit/tallymcp/internal/store"
	"github.com/tallykit/tallymcp/pkg/version"
)

// Server is the MCP server for TallyMCP.
// It exposes the subset-sum engine to AI clients (Claude Code, Cursor):
// reconciliation agents ask "which of these amounts sum to this total"
// without shelling out to the CLI.
type Server struct {
	mcp    *mcp.Server
	config *config.Config
	logger *slog.Logger

	// background runs long solves off the request goroutine so clients
	// can poll instead of holding a connection open.
	background *async.BackgroundSolver

	// results caches completed synchronous solves keyed by input digest.
	results *cache.ResultCache

	// history is optional run recording (nil when disabled).
	history *store.HistoryStore

	// lastAmounts/lastRequested describe the most recent background solve
	// so solve_status can reconcile views once it completes.
	lastAmounts   []float64
	lastRequested int

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}

	cacheSize := cfg.Server.CacheSize
	if cacheSize <= 0 {
		cacheSize = cache.DefaultResultCacheSize
	}

	s := &Server{
		config:     cfg,
		logger:     slog.Default(),
		background: async.NewBackgroundSolver(),
		results:    cache.NewResultCache(cacheSize),
	}

	// Create MCP server with implementation info
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "TallyMCP",
			Version: version.Version,
		},
		nil, // ServerOptions - capabilities are inferred from registered tools
	)

	s.registerTools()

	return s, nil
}

// SetHistory enables run recording. May be nil to disable.
func (s *Server) SetHistory(h *store.HistoryStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = h
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "TallyMCP", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "solve",
			Description: "Find which subsets of the given amounts sum to the target. Runs synchronously; use start_solve for large inputs.",
		},
		{
			Name:        "start_solve",
			Description: "Start a solve in the background and return immediately. Poll solve_status for progress and results.",
		},
		{
			Name:        "solve_status",
			Description: "Report the state of the background solve: progress percent while running, solutions once completed.",
		},
		{
			Name:        "stop_solve",
			Description: "Request the running background solve to stop. Solutions found so far are kept and returned by solve_status.",
		},
	}
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "solve",
		Description: "Find which subsets of the given amounts sum to the target. Runs synchronously; use start_solve for large inputs.",
	}, s.mcpSolveHandler)
	s.logger.Debug("Registered tool", slog.String("name", "solve"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "start_solve",
		Description: "Start a solve in the background and return immediately. Poll solve_status for progress and results.",
	}, s.mcpStartSolveHandler)
	s.logger.Debug("Registered tool", slog.String("name", "start_solve"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "solve_status",
		Description: "Report the state of the background solve: progress percent while running, solutions once completed.",
	}, s.mcpSolveStatusHandler)
	s.logger.Debug("Registered tool", slog.String("name", "solve_status"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "stop_solve",
		Description: "Request the running background solve to stop. Solutions found so far are kept and returned by solve_status.",
	}, s.mcpStopSolveHandler)
	s.logger.Debug("Registered tool", slog.String("name", "stop_solve"))

	s.logger.Info("MCP tools registered", slog.Int("count", 4))
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport))

	switch transport {
	case "stdio":
		s.logger.Debug("Using stdio transport for JSON-RPC")
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	s.background.RequestStop()
	s.mu.Lock()
	h := s.history
	s.history = nil
	s.mu.Unlock()
	if h != nil {
		return h.Close()
	}
	return nil
}
