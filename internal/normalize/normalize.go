// Package normalize maps service-specific tool results onto the unified
// record types. Every function is pure: unknown fields are dropped and a
// payload that does not carry the expected shape becomes a protocol_error.
package normalize

import (
	"strings"

	"github.com/MrSnakeDoc/integrator/internal/domain"
)

// Messages normalizes a messages payload.
func Messages(service string, p *domain.Payload) (Batch[domain.Message], *domain.Failure) {
	objs, reported, f := decode(domain.CapabilityMessages, p)
	if f != nil {
		return Batch[domain.Message]{}, f
	}

	out := make([]domain.Message, 0, len(objs))
	for _, obj := range objs {
		ts, _ := timeField(obj, "date", "timestamp", "received", "receivedDateTime", "internalDate", "ts", "time", "sent", "created_at")
		out = append(out, domain.Message{
			Service:   service,
			Timestamp: ts,
			Sender:    text(obj, "from", "sender", "user_name", "user", "author", "username"),
			Subject:   text(obj, "subject", "title", "topic"),
			Preview:   text(obj, "preview", "snippet", "bodyPreview", "text", "body", "message"),
			Read:      readState(obj),
		})
	}
	return Batch[domain.Message]{Records: out, Reported: reported}, nil
}

// Events normalizes a calendar payload.
func Events(service string, p *domain.Payload) (Batch[domain.Event], *domain.Failure) {
	objs, reported, f := decode(domain.CapabilityCalendar, p)
	if f != nil {
		return Batch[domain.Event]{}, f
	}

	out := make([]domain.Event, 0, len(objs))
	for _, obj := range objs {
		start, _ := timeField(obj, "start", "start_time", "startTime", "starts_at", "begin", "when")
		end, _ := timeField(obj, "end", "end_time", "endTime", "ends_at")
		out = append(out, domain.Event{
			Service:  service,
			Start:    start,
			End:      end,
			Title:    text(obj, "title", "summary", "subject", "name"),
			Location: text(obj, "location", "place", "where"),
		})
	}
	return Batch[domain.Event]{Records: out, Reported: reported}, nil
}

// Tasks normalizes a tasks payload.
func Tasks(service string, p *domain.Payload) (Batch[domain.Task], *domain.Failure) {
	objs, reported, f := decode(domain.CapabilityTasks, p)
	if f != nil {
		return Batch[domain.Task]{}, f
	}

	out := make([]domain.Task, 0, len(objs))
	for _, obj := range objs {
		t := domain.Task{
			Service: service,
			Title:   text(obj, "title", "content", "name", "summary", "subject"),
			Status:  taskStatus(obj),
		}
		if due, ok := timeField(obj, "due", "due_date", "dueDate", "deadline", "due_at"); ok {
			t.Due = &due
		}
		if v, ok := first(obj, "priority"); ok {
			if n, ok := intValue(v); ok {
				t.Priority = &n
			}
		}
		out = append(out, t)
	}
	return Batch[domain.Task]{Records: out, Reported: reported}, nil
}

// SearchHits normalizes a search payload. label names the result domain
// of the service (emails, messages, pages, code).
func SearchHits(service, label string, p *domain.Payload) (Batch[domain.SearchHit], *domain.Failure) {
	objs, reported, f := decode(domain.CapabilitySearch, p)
	if f != nil {
		return Batch[domain.SearchHit]{}, f
	}

	out := make([]domain.SearchHit, 0, len(objs))
	for _, obj := range objs {
		h := domain.SearchHit{
			Service: service,
			Domain:  label,
			Title:   text(obj, "title", "subject", "name", "path", "summary"),
			Snippet: text(obj, "snippet", "preview", "text", "excerpt", "body", "content"),
			URL:     text(obj, "url", "link", "html_url", "permalink", "webLink", "web_url"),
		}
		if ts, ok := timeField(obj, "date", "timestamp", "ts", "updated_at", "last_edited_time", "modified", "created_at"); ok {
			h.Timestamp = &ts
		}
		out = append(out, h)
	}
	return Batch[domain.SearchHit]{Records: out, Reported: reported}, nil
}

func decode(c domain.Capability, p *domain.Payload) ([]map[string]any, int, *domain.Failure) {
	doc, f := document(p)
	if f != nil {
		return nil, 0, f
	}
	return records(c, doc)
}

// readState defaults to unread: these lists come from unread-message tools.
func readState(obj map[string]any) bool {
	if v, ok := first(obj, "read", "is_read", "isRead", "seen"); ok {
		if b, ok := boolValue(v); ok {
			return b
		}
	}
	if v, ok := first(obj, "unread", "is_unread", "isUnread"); ok {
		if b, ok := boolValue(v); ok {
			return !b
		}
	}
	return false
}

func taskStatus(obj map[string]any) string {
	if s := text(obj, "status", "state"); s != "" {
		return strings.ToLower(s)
	}
	if v, ok := first(obj, "completed", "is_completed", "checked", "done"); ok {
		if b, ok := boolValue(v); ok && b {
			return "completed"
		}
	}
	return "open"
}
