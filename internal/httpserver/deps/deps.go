package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/integrator/internal/integrator"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

// Operations is the integrator surface served over HTTP.
type Operations interface {
	Inbox(ctx context.Context, req integrator.InboxRequest) (integrator.InboxView, error)
	Calendar(ctx context.Context, req integrator.CalendarRequest) (integrator.CalendarView, error)
	Tasks(ctx context.Context) (integrator.TasksView, error)
	Briefing(ctx context.Context) (integrator.BriefingView, error)
	Search(ctx context.Context, req integrator.SearchRequest) (integrator.SearchView, error)
	Health(ctx context.Context) (integrator.HealthView, error)
	Services() []integrator.ServiceInfo
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to access the API and MCP endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Ops          Operations       // unified operations
	MCP          http.Handler     // streamable HTTP MCP endpoint, nil to leave /mcp unmounted
}
