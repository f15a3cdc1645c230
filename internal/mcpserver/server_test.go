package mcpserver

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/integrator/internal/domain"
	"github.com/MrSnakeDoc/integrator/internal/integrator"
)

type mockOperations struct {
	lastSearch integrator.SearchRequest
	lastInbox  integrator.InboxRequest
}

func (m *mockOperations) Inbox(_ context.Context, req integrator.InboxRequest) (integrator.InboxView, error) {
	m.lastInbox = req
	return integrator.InboxView{
		TotalUnread: 127,
		ByService:   map[string]int{"outlook": 45, "google": 62, "slack": 20},
		AllMessages: []domain.Message{},
		Failures:    map[string]*domain.Failure{},
	}, nil
}

func (m *mockOperations) Calendar(_ context.Context, req integrator.CalendarRequest) (integrator.CalendarView, error) {
	return integrator.CalendarView{Date: req.Date}, nil
}

func (m *mockOperations) Tasks(context.Context) (integrator.TasksView, error) {
	return integrator.TasksView{
		TotalTasks: 1,
		Failures:   map[string]*domain.Failure{"notion": {Kind: domain.FailureTimeout}},
	}, nil
}

func (m *mockOperations) Briefing(context.Context) (integrator.BriefingView, error) {
	return integrator.BriefingView{Date: "2024-05-01", Recommendations: []string{}}, nil
}

func (m *mockOperations) Search(_ context.Context, req integrator.SearchRequest) (integrator.SearchView, error) {
	m.lastSearch = req
	if strings.TrimSpace(req.Query) == "" {
		return integrator.SearchView{}, &domain.InvalidRequestError{Field: "query", Reason: "is required"}
	}
	return integrator.SearchView{Query: req.Query, TotalResults: 3}, nil
}

func (m *mockOperations) Health(context.Context) (integrator.HealthView, error) {
	return integrator.HealthView{TotalServices: 2, HealthyServices: 1, UnhealthyServices: 1}, nil
}

func TestServer_handleInbox(t *testing.T) {
	ops := &mockOperations{}
	s := New(ops, "test", nil)

	limit := 10
	res, out, err := s.handleInbox(context.Background(), nil, integrator.InboxRequest{Limit: &limit})
	require.NoError(t, err)

	view, ok := out.(integrator.InboxView)
	require.True(t, ok)
	assert.Equal(t, 127, view.TotalUnread)
	require.NotNil(t, ops.lastInbox.Limit)
	assert.Equal(t, 10, *ops.lastInbox.Limit)

	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	assert.Equal(t, float64(127), decoded["total_unread"])
}

func TestServer_handleSearchRejectsBlankQuery(t *testing.T) {
	s := New(&mockOperations{}, "test", nil)

	res, out, err := s.handleSearch(context.Background(), nil, integrator.SearchRequest{Query: " "})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "query")
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func TestListToolsOverSession(t *testing.T) {
	session := connect(t, New(&mockOperations{}, "test", nil))

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)

	assert.Equal(t, []string{
		ToolComprehensiveBriefing,
		ToolSearchEverywhere,
		ToolServiceHealthCheck,
		ToolUnifiedCalendar,
		ToolUnifiedInbox,
		ToolUnifiedTasks,
	}, names)
}

func TestCallToolOverSession(t *testing.T) {
	ops := &mockOperations{}
	session := connect(t, New(ops, "test", nil))
	ctx := context.Background()

	t.Run("search", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      ToolSearchEverywhere,
			Arguments: map[string]any{"query": "project alpha", "days": 7},
		})
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Equal(t, "project alpha", ops.lastSearch.Query)
		require.NotNil(t, ops.lastSearch.Days)
		assert.Equal(t, 7, *ops.lastSearch.Days)

		require.NotEmpty(t, result.Content)
		text := result.Content[0].(*mcp.TextContent).Text
		assert.Contains(t, text, `"total_results": 3`)
	})

	t.Run("tasks failures are reported", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: ToolUnifiedTasks, Arguments: map[string]any{}})
		require.NoError(t, err)
		require.False(t, result.IsError)
		text := result.Content[0].(*mcp.TextContent).Text
		assert.Contains(t, text, `"kind": "timeout"`)
	})

	t.Run("invalid request is a tool error", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      ToolSearchEverywhere,
			Arguments: map[string]any{"query": "  "},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
