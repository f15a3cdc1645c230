package registry

import "github.com/MrSnakeDoc/integrator/internal/domain"

// catalogEntry is the built-in contract of a well-known backend.
type catalogEntry struct {
	capabilities []domain.Capability
	bindings     map[domain.Capability]domain.Binding
}

// catalog maps well-known service names to the tools they expose for each
// unified view. Services not listed here must declare capabilities explicitly.
var catalog = map[string]catalogEntry{
	"outlook": {
		capabilities: []domain.Capability{domain.CapabilityMessages, domain.CapabilityCalendar, domain.CapabilitySearch},
		bindings: map[domain.Capability]domain.Binding{
			domain.CapabilityMessages: {Tool: "get_unread_emails"},
			domain.CapabilityCalendar: {Tool: "get_today_events", Forward: []string{"date"}},
			domain.CapabilitySearch:   {Tool: "search_emails", Domain: "emails"},
		},
	},
	"google": {
		capabilities: []domain.Capability{domain.CapabilityMessages, domain.CapabilityCalendar, domain.CapabilityTasks, domain.CapabilitySearch},
		bindings: map[domain.Capability]domain.Binding{
			domain.CapabilityMessages: {Tool: "get_unread_emails"},
			domain.CapabilityCalendar: {Tool: "get_calendar_events"},
			domain.CapabilityTasks:    {Tool: "get_tasks"},
			domain.CapabilitySearch:   {Tool: "search_emails", Domain: "emails"},
		},
	},
	"todoist": {
		capabilities: []domain.Capability{domain.CapabilityTasks},
		bindings: map[domain.Capability]domain.Binding{
			domain.CapabilityTasks: {Tool: "get_tasks"},
		},
	},
	"slack": {
		capabilities: []domain.Capability{domain.CapabilityMessages, domain.CapabilitySearch},
		bindings: map[domain.Capability]domain.Binding{
			domain.CapabilityMessages: {Tool: "get_unread_messages"},
			domain.CapabilitySearch:   {Tool: "search_messages", Domain: "messages", Forward: []string{"query"}},
		},
	},
	"notion": {
		capabilities: []domain.Capability{domain.CapabilityTasks, domain.CapabilitySearch},
		bindings: map[domain.Capability]domain.Binding{
			domain.CapabilityTasks:  {Tool: "query_database", Args: map[string]any{"database_id": "tasks"}},
			domain.CapabilitySearch: {Tool: "search", Domain: "pages", Forward: []string{"query"}},
		},
	},
	"github": {
		capabilities: []domain.Capability{domain.CapabilitySearch},
		bindings: map[domain.Capability]domain.Binding{
			domain.CapabilitySearch: {Tool: "search_code", Domain: "code", Forward: []string{"query"}},
		},
	},
	// Health-only services: registered, probed, never part of a view.
	"homeassistant": {},
	"icloud":        {},
}
