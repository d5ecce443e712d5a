package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"fsgate/internal/dispatch"
	"fsgate/internal/logging"
	"fsgate/internal/toolerr"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the implementation name announced during initialize.
const ServerName = "filesystem-mcp-server"

// Invoker runs tool calls. *gateway.Gateway implements it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (*dispatch.Result, error)
	Tools() []dispatch.Tool
}

// Server represents an MCP server instance using mcp-go
type Server struct {
	invoker   Invoker
	logger    *logging.AppLogger
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server exposing every tool of invoker.
func NewServer(invoker Invoker, version string, logger *logging.AppLogger) *Server {
	if logger == nil {
		logger = logging.GetDefault()
	}

	s := &Server{
		invoker: invoker,
		logger:  logger,
		mcpServer: server.NewMCPServer(ServerName, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	for _, tool := range invoker.Tools() {
		s.mcpServer.AddTool(newTool(tool), s.handler(tool.Name))
		logger.Debug("Registered MCP tool", "name", tool.Name)
	}
	return s
}

// newTool converts a tool table entry into its MCP definition.
func newTool(t dispatch.Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.Description),
		mcp.WithTitleAnnotation(t.Title),
		mcp.WithReadOnlyHintAnnotation(t.ReadOnly),
		mcp.WithDestructiveHintAnnotation(t.Destructive),
		mcp.WithIdempotentHintAnnotation(t.Idempotent),
		mcp.WithOpenWorldHintAnnotation(false),
	}
	for _, p := range t.Params {
		opts = append(opts, mcp.WithString(p.Name, mcp.Required(), mcp.Description(p.Description)))
	}
	return mcp.NewTool(t.Name, opts...)
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := s.invoker.Invoke(ctx, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(toolerr.Format(err)), nil
		}
		return mcp.NewToolResultStructured(res.Data, res.Text()), nil
	}
}

// MCPServer exposes the underlying mcp-go server, e.g. for HandleMessage.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve reads JSON-RPC messages from in and writes responses to out until
// in is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("Starting MCP server", "transport", "stdio", "tools", len(s.invoker.Tools()))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(s.logger.Writer(), "", 0))

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	s.logger.Info("MCP server stopped")
	return nil
}
