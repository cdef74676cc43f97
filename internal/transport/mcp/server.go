package mcp

import (
	"context"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	portaudit "github.com/alanyang/threadkeeper/internal/port/audit"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
)

// Server wraps the mcp-go MCPServer and its StreamableHTTPServer. Tools are
// registered in tools.go.
type Server struct {
	httpSrv *mcpserver.StreamableHTTPServer
}

func New(version string, reminders *remindersvc.Service, audit portaudit.Store, tasks TaskRunner) *Server {
	hooks := &mcpserver.Hooks{}
	hooks.OnRegisterSession = append(hooks.OnRegisterSession, func(ctx context.Context, session mcpserver.ClientSession) {
		slog.InfoContext(ctx, "mcp: session opened", "session_id", session.SessionID())
	})
	hooks.OnUnregisterSession = append(hooks.OnUnregisterSession, func(ctx context.Context, session mcpserver.ClientSession) {
		slog.InfoContext(ctx, "mcp: session closed", "session_id", session.SessionID())
	})

	mcpSrv := mcpserver.NewMCPServer(
		"threadkeeper",
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithHooks(hooks),
	)
	RegisterTools(mcpSrv, reminders, audit, tasks)

	return &Server{httpSrv: mcpserver.NewStreamableHTTPServer(mcpSrv)}
}

// Handler returns an http.Handler that serves the MCP endpoint.
func (s *Server) Handler() http.Handler {
	return s.httpSrv
}
