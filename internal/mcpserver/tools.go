package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrSnakeDoc/integrator/internal/integrator"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

// Names of the tools the server exposes.
const (
	ToolUnifiedInbox          = "unified_inbox"
	ToolUnifiedCalendar       = "unified_calendar"
	ToolUnifiedTasks          = "unified_tasks"
	ToolComprehensiveBriefing = "comprehensive_briefing"
	ToolSearchEverywhere      = "search_everywhere"
	ToolServiceHealthCheck    = "service_health_check"
)

// NoInput is the argument type of tools without parameters.
type NoInput struct{}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolUnifiedInbox,
		Description: "Get a unified view of unread messages from every mail and chat service, newest first.",
	}, s.handleInbox)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolUnifiedCalendar,
		Description: "Get a unified calendar from every calendar service for one day (YYYY-MM-DD, default today).",
	}, s.handleCalendar)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolUnifiedTasks,
		Description: "Get a unified task list from every task service.",
	}, s.handleTasks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolComprehensiveBriefing,
		Description: "Daily briefing across all services: unread messages, today's calendar, tasks and recommendations.",
	}, s.handleBriefing)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolSearchEverywhere,
		Description: "Search a keyword across every searchable service (mail, chat, pages, code).",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolServiceHealthCheck,
		Description: "Check connectivity of every registered backend service.",
	}, s.handleHealth)
}

func (s *Server) handleInbox(ctx context.Context, _ *mcp.CallToolRequest, in integrator.InboxRequest) (*mcp.CallToolResult, any, error) {
	return respond(s, ToolUnifiedInbox, func() (any, error) { return s.ops.Inbox(ctx, in) })
}

func (s *Server) handleCalendar(ctx context.Context, _ *mcp.CallToolRequest, in integrator.CalendarRequest) (*mcp.CallToolResult, any, error) {
	return respond(s, ToolUnifiedCalendar, func() (any, error) { return s.ops.Calendar(ctx, in) })
}

func (s *Server) handleTasks(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
	return respond(s, ToolUnifiedTasks, func() (any, error) { return s.ops.Tasks(ctx) })
}

func (s *Server) handleBriefing(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
	return respond(s, ToolComprehensiveBriefing, func() (any, error) { return s.ops.Briefing(ctx) })
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in integrator.SearchRequest) (*mcp.CallToolResult, any, error) {
	return respond(s, ToolSearchEverywhere, func() (any, error) { return s.ops.Search(ctx, in) })
}

func (s *Server) handleHealth(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
	return respond(s, ToolServiceHealthCheck, func() (any, error) { return s.ops.Health(ctx) })
}

// respond runs op and renders its view both as structured content and as
// indented JSON text for clients that only read text blocks.
func respond(s *Server, tool string, op func() (any, error)) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	view, err := op()
	if err != nil {
		s.log.Info("tool rejected",
			logger.String("tool", tool),
			logger.Error(err))
		return nil, nil, err
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s result: %w", tool, err)
	}

	s.log.Debug("tool served",
		logger.String("tool", tool),
		logger.Duration("elapsed", time.Since(start)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, view, nil
}
