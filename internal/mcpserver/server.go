// Package mcpserver publishes the unified operations as MCP tools over
// stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrSnakeDoc/integrator/internal/integrator"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

// Name is the MCP implementation name announced to clients.
const Name = "integrator"

// Operations is the operation surface the tools delegate to.
type Operations interface {
	Inbox(ctx context.Context, req integrator.InboxRequest) (integrator.InboxView, error)
	Calendar(ctx context.Context, req integrator.CalendarRequest) (integrator.CalendarView, error)
	Tasks(ctx context.Context) (integrator.TasksView, error)
	Briefing(ctx context.Context) (integrator.BriefingView, error)
	Search(ctx context.Context, req integrator.SearchRequest) (integrator.SearchView, error)
	Health(ctx context.Context) (integrator.HealthView, error)
}

// Server is the MCP front of the integrator.
type Server struct {
	ops    Operations
	server *mcp.Server
	log    logger.Logger
}

// New builds the MCP server and registers every tool.
func New(ops Operations, version string, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}

	impl := &mcp.Implementation{
		Name:    Name,
		Version: version,
	}

	s := &Server{
		ops:    ops,
		server: mcp.NewServer(impl, nil),
		log:    log,
	}
	s.registerTools()

	return s
}

// Run serves MCP over stdio until ctx is cancelled or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves MCP over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
