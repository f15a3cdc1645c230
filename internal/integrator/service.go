// Package integrator exposes the unified operations: it validates caller
// input, fans the request out, and shapes the merged result.
package integrator

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/integrator/internal/aggregate"
	"github.com/MrSnakeDoc/integrator/internal/domain"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

// Tool names requested from services that have no binding of their own.
const (
	ToolUnreadMessages = "get_unread_messages"
	ToolCalendarEvents = "get_calendar_events"
	ToolTasks          = "get_tasks"
	ToolSearch         = "search"
)

const (
	dateLayout          = "2006-01-02"
	defaultSearchDomain = "results"
)

// Dispatcher fans one operation out to every eligible service.
type Dispatcher interface {
	Dispatch(ctx context.Context, c domain.Capability, tool string, args map[string]any, timeout time.Duration) *domain.Outcomes
}

// HealthChecker probes every service.
type HealthChecker interface {
	CheckAll(ctx context.Context) domain.HealthReport
}

// Registry is the read side of the service registry.
type Registry interface {
	All() []domain.ServiceDescriptor
	Lookup(name string) (domain.ServiceDescriptor, bool)
}

// Options carries the tunables of the operations.
type Options struct {
	CallTimeout        time.Duration
	RequestTimeout     time.Duration
	InboxLimit         int
	BriefingInboxLimit int
	SearchDays         int
	Thresholds         aggregate.Thresholds
}

// Service implements the exposed operations.
type Service struct {
	reg    Registry
	disp   Dispatcher
	health HealthChecker
	opts   Options
	log    logger.Logger
	now    func() time.Time
}

// New builds the operation service.
func New(reg Registry, disp Dispatcher, health HealthChecker, opts Options, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		reg:    reg,
		disp:   disp,
		health: health,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
}

// InboxRequest is the input of unified_inbox. Nil Limit uses the default.
type InboxRequest struct {
	Limit *int `json:"limit,omitempty" jsonschema:"maximum messages fetched per service"`
}

// CalendarRequest is the input of unified_calendar. Empty Date means today.
type CalendarRequest struct {
	Date string `json:"date,omitempty" jsonschema:"day to list as YYYY-MM-DD, defaults to today"`
}

// SearchRequest is the input of search_everywhere.
type SearchRequest struct {
	Query string `json:"query" jsonschema:"text to search for"`
	Days  *int   `json:"days,omitempty" jsonschema:"how many days back to search"`
}

// Inbox runs unified_inbox.
func (s *Service) Inbox(ctx context.Context, req InboxRequest) (InboxView, error) {
	limit, err := positive("limit", req.Limit, s.opts.InboxLimit)
	if err != nil {
		return InboxView{}, err
	}

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	return inboxView(s.inbox(ctx, limit)), nil
}

// Calendar runs unified_calendar.
func (s *Service) Calendar(ctx context.Context, req CalendarRequest) (CalendarView, error) {
	date, err := s.day(req.Date)
	if err != nil {
		return CalendarView{}, err
	}

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	return calendarView(date, s.calendar(ctx, date)), nil
}

// Tasks runs unified_tasks.
func (s *Service) Tasks(ctx context.Context) (TasksView, error) {
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	return tasksView(s.tasks(ctx)), nil
}

// Briefing runs comprehensive_briefing. The three views are fetched
// concurrently under one request deadline.
func (s *Service) Briefing(ctx context.Context) (BriefingView, error) {
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	now := s.now()
	date := now.Format(dateLayout)

	var (
		inbox    domain.AggregationResult[domain.Message]
		calendar domain.AggregationResult[domain.Event]
		tasks    domain.AggregationResult[domain.Task]
	)

	var g errgroup.Group
	g.Go(func() error {
		inbox = s.inbox(ctx, s.opts.BriefingInboxLimit)
		return nil
	})
	g.Go(func() error {
		calendar = s.calendar(ctx, date)
		return nil
	})
	g.Go(func() error {
		tasks = s.tasks(ctx)
		return nil
	})
	_ = g.Wait() // Views carry their failures, none returns an error

	b := aggregate.Briefing(inbox, calendar, tasks, date, now, s.opts.Thresholds)

	s.log.Debug("briefing assembled",
		logger.Int("unread", b.Summary.UnreadMessages),
		logger.Int("meetings", b.Summary.MeetingsToday),
		logger.Int("tasks", b.Summary.ActiveTasks),
		logger.Int("recommendations", len(b.Recommendations)))

	return briefingView(b), nil
}

// Search runs search_everywhere. A blank query is rejected before any
// backend is contacted.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchView, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return SearchView{}, &domain.InvalidRequestError{Field: "query", Reason: "is required"}
	}
	days, err := positive("days", req.Days, s.opts.SearchDays)
	if err != nil {
		return SearchView{}, err
	}

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	args := map[string]any{"query": query, "days": days}
	outcomes := s.disp.Dispatch(ctx, domain.CapabilitySearch, ToolSearch, args, s.opts.CallTimeout)

	return searchView(aggregate.Search(query, outcomes, s.searchDomain)), nil
}

// Health runs service_health_check.
func (s *Service) Health(ctx context.Context) (HealthView, error) {
	return healthView(s.health.CheckAll(ctx)), nil
}

// Services lists the registry in registration order.
func (s *Service) Services() []ServiceInfo {
	all := s.reg.All()
	out := make([]ServiceInfo, 0, len(all))
	for _, d := range all {
		caps := make([]string, 0, len(d.Capabilities))
		for _, c := range d.Capabilities {
			caps = append(caps, c.String())
		}
		out = append(out, ServiceInfo{Name: d.Name, URL: d.Endpoint, Capabilities: caps})
	}
	return out
}

func (s *Service) inbox(ctx context.Context, limit int) domain.AggregationResult[domain.Message] {
	outcomes := s.disp.Dispatch(ctx, domain.CapabilityMessages, ToolUnreadMessages, map[string]any{"limit": limit}, s.opts.CallTimeout)
	return aggregate.Inbox(outcomes, limit)
}

func (s *Service) calendar(ctx context.Context, date string) domain.AggregationResult[domain.Event] {
	outcomes := s.disp.Dispatch(ctx, domain.CapabilityCalendar, ToolCalendarEvents, map[string]any{"date": date}, s.opts.CallTimeout)
	return aggregate.Calendar(outcomes)
}

func (s *Service) tasks(ctx context.Context) domain.AggregationResult[domain.Task] {
	outcomes := s.disp.Dispatch(ctx, domain.CapabilityTasks, ToolTasks, map[string]any{}, s.opts.CallTimeout)
	return aggregate.Tasks(outcomes)
}

func (s *Service) searchDomain(service string) string {
	d, ok := s.reg.Lookup(service)
	if !ok {
		return defaultSearchDomain
	}
	if dom := d.Binding(domain.CapabilitySearch).Domain; dom != "" {
		return dom
	}
	return defaultSearchDomain
}

func (s *Service) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.RequestTimeout)
}

// day validates a YYYY-MM-DD date, defaulting to today.
func (s *Service) day(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now().Format(dateLayout), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", &domain.InvalidRequestError{Field: "date", Reason: "must be formatted YYYY-MM-DD"}
	}
	return t.Format(dateLayout), nil
}

func positive(field string, v *int, def int) (int, error) {
	if v == nil {
		return def, nil
	}
	if *v <= 0 {
		return 0, &domain.InvalidRequestError{Field: field, Reason: "must be a positive integer"}
	}
	return *v, nil
}
