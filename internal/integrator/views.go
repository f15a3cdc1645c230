package integrator

import (
	"time"

	"github.com/MrSnakeDoc/integrator/internal/domain"
)

// InboxView is the unified_inbox response.
type InboxView struct {
	TotalUnread int                        `json:"total_unread"`
	ByService   map[string]int             `json:"by_service"`
	AllMessages []domain.Message           `json:"all_messages"`
	Failures    map[string]*domain.Failure `json:"failures"`
}

// CalendarView is the unified_calendar response.
type CalendarView struct {
	Date      string                     `json:"date"`
	AllEvents []domain.Event             `json:"all_events"`
	ByService map[string]int             `json:"by_service"`
	Failures  map[string]*domain.Failure `json:"failures"`
}

// TasksView is the unified_tasks response.
type TasksView struct {
	TotalTasks int                        `json:"total_tasks"`
	ByService  map[string]int             `json:"by_service"`
	AllTasks   []domain.Task              `json:"all_tasks"`
	Failures   map[string]*domain.Failure `json:"failures"`
}

// BriefingView is the comprehensive_briefing response.
type BriefingView struct {
	Date             string           `json:"date"`
	GeneratedAt      time.Time        `json:"generated_at"`
	Summary          domain.Summary   `json:"summary"`
	InboxOverview    InboxOverview    `json:"inbox_overview"`
	CalendarOverview CalendarOverview `json:"calendar_overview"`
	TasksOverview    TasksOverview    `json:"tasks_overview"`
	Recommendations  []string         `json:"recommendations"`
}

// InboxOverview is the mail and chat section of a briefing.
type InboxOverview struct {
	TotalUnread int                        `json:"total_unread"`
	ByService   map[string]int             `json:"by_service"`
	TopMessages []domain.Message           `json:"top_5_messages"`
	Failures    map[string]*domain.Failure `json:"failures"`
}

// CalendarOverview is the calendar section of a briefing.
type CalendarOverview struct {
	TotalEvents int                        `json:"total_events"`
	ByService   map[string]int             `json:"by_service"`
	AllEvents   []domain.Event             `json:"all_events"`
	Failures    map[string]*domain.Failure `json:"failures"`
}

// TasksOverview is the task section of a briefing.
type TasksOverview struct {
	TotalTasks int                        `json:"total_tasks"`
	ByService  map[string]int             `json:"by_service"`
	TopTasks   []domain.Task              `json:"top_10_tasks"`
	Failures   map[string]*domain.Failure `json:"failures"`
}

// SearchView is the search_everywhere response.
type SearchView struct {
	Query        string                     `json:"query"`
	TotalResults int                        `json:"total_results"`
	ByService    map[string]SearchGroupView `json:"by_service"`
	Failures     map[string]*domain.Failure `json:"failures"`
}

// SearchGroupView holds one service's hits inside a SearchView.
type SearchGroupView struct {
	Service string             `json:"service"`
	Domain  string             `json:"domain"`
	Count   int                `json:"count"`
	Results []domain.SearchHit `json:"results"`
}

// HealthView is the service_health_check response.
type HealthView struct {
	Timestamp         time.Time                    `json:"timestamp"`
	TotalServices     int                          `json:"total_services"`
	HealthyServices   int                          `json:"healthy_services"`
	UnhealthyServices int                          `json:"unhealthy_services"`
	DegradedServices  int                          `json:"degraded_services"`
	Services          map[string]ServiceHealthView `json:"services"`
}

// ServiceHealthView is the health result of one service inside a HealthView.
type ServiceHealthView struct {
	Status         domain.HealthStatus `json:"status"`
	URL            string              `json:"url"`
	LatencyMS      int64               `json:"latency_ms"`
	Capabilities   int                 `json:"capabilities"`
	ToolsAvailable int                 `json:"tools_available"`
	Error          *domain.Failure     `json:"error,omitempty"`
}

// ServiceInfo describes one registered service.
type ServiceInfo struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Capabilities []string `json:"capabilities"`
}

func inboxView(r domain.AggregationResult[domain.Message]) InboxView {
	return InboxView{
		TotalUnread: r.Total,
		ByService:   r.CountMap(),
		AllMessages: r.Items,
		Failures:    r.Failures,
	}
}

func calendarView(date string, r domain.AggregationResult[domain.Event]) CalendarView {
	return CalendarView{
		Date:      date,
		AllEvents: r.Items,
		ByService: r.CountMap(),
		Failures:  r.Failures,
	}
}

func tasksView(r domain.AggregationResult[domain.Task]) TasksView {
	return TasksView{
		TotalTasks: r.Total,
		ByService:  r.CountMap(),
		AllTasks:   r.Items,
		Failures:   r.Failures,
	}
}

func briefingView(b domain.BriefingResult) BriefingView {
	return BriefingView{
		Date:        b.Date,
		GeneratedAt: b.GeneratedAt,
		Summary:     b.Summary,
		InboxOverview: InboxOverview{
			TotalUnread: b.Inbox.Total,
			ByService:   b.Inbox.CountMap(),
			TopMessages: b.Inbox.Items,
			Failures:    b.Inbox.Failures,
		},
		CalendarOverview: CalendarOverview{
			TotalEvents: b.Calendar.Total,
			ByService:   b.Calendar.CountMap(),
			AllEvents:   b.Calendar.Items,
			Failures:    b.Calendar.Failures,
		},
		TasksOverview: TasksOverview{
			TotalTasks: b.Tasks.Total,
			ByService:  b.Tasks.CountMap(),
			TopTasks:   b.Tasks.Items,
			Failures:   b.Tasks.Failures,
		},
		Recommendations: b.Recommendations,
	}
}

func searchView(r domain.SearchResult) SearchView {
	groups := make(map[string]SearchGroupView, len(r.Groups))
	for _, g := range r.Groups {
		groups[g.Key] = SearchGroupView{
			Service: g.Service,
			Domain:  g.Domain,
			Count:   g.Count,
			Results: g.Items,
		}
	}
	return SearchView{
		Query:        r.Query,
		TotalResults: r.Total,
		ByService:    groups,
		Failures:     r.Failures,
	}
}

func healthView(r domain.HealthReport) HealthView {
	services := make(map[string]ServiceHealthView, len(r.Services))
	for _, rec := range r.Services {
		services[rec.Service] = ServiceHealthView{
			Status:         rec.Status,
			URL:            rec.Endpoint,
			LatencyMS:      rec.Latency.Milliseconds(),
			Capabilities:   rec.CapabilityCount,
			ToolsAvailable: rec.ToolsAvailable,
			Error:          rec.Error,
		}
	}
	return HealthView{
		Timestamp:         r.Timestamp,
		TotalServices:     r.Total,
		HealthyServices:   r.Healthy,
		UnhealthyServices: r.Unhealthy,
		DegradedServices:  r.Degraded,
		Services:          services,
	}
}
