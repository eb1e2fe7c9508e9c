// Package mcp serves materialized Composio tools to agents over MCP.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/composiotools/internal/actions"
)

// Server identity reported during MCP initialization.
const (
	ServerName    = "composiotools"
	ServerVersion = "1.0.0"
)

// ToolServerDeps holds the dependencies for creating a ToolServer.
type ToolServerDeps struct {
	Registry actions.ActionRegistry
	Logger   *slog.Logger
	Version  string
}

// ToolServer exposes every registered action as an MCP tool.
type ToolServer struct {
	registry  actions.ActionRegistry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewToolServer creates a ToolServer with one tool per registered action.
// Actions registered later are not picked up.
func NewToolServer(deps ToolServerDeps) *ToolServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	version := deps.Version
	if version == "" {
		version = ServerVersion
	}

	s := &ToolServer{
		registry: deps.Registry,
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Each tool runs one Composio action for the configured entity. Tool arguments follow the action's parameter schema; results are the vendor's JSON payload."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *ToolServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *ToolServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}
