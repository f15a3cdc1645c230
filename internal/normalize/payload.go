package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/MrSnakeDoc/integrator/internal/domain"
)

// Batch is the normalized output of one service for one capability.
type Batch[T any] struct {
	Records []T

	// Reported is the pre-truncation count the service announced, or -1.
	Reported int
}

// Count returns the announced count when there is one, else the number of records.
func (b Batch[T]) Count() int {
	if b.Reported >= len(b.Records) {
		return b.Reported
	}
	return len(b.Records)
}

// Truncate keeps at most n records. Reported is left untouched.
func (b Batch[T]) Truncate(n int) Batch[T] {
	if n >= 0 && len(b.Records) > n {
		b.Records = b.Records[:n]
	}
	return b
}

// listKeys name the fields under which services nest their record list,
// in lookup order per capability.
var listKeys = map[domain.Capability][]string{
	domain.CapabilityMessages: {"messages", "emails", "items", "results", "data", "value"},
	domain.CapabilityCalendar: {"events", "items", "results", "data", "value"},
	domain.CapabilityTasks:    {"tasks", "issues", "items", "results", "data"},
	domain.CapabilitySearch:   {"results", "matches", "messages", "emails", "pages", "items", "data"},
}

var countKeys = map[domain.Capability][]string{
	domain.CapabilityMessages: {"unread_count", "total", "total_count", "count"},
	domain.CapabilityCalendar: {"total", "total_count", "count"},
	domain.CapabilityTasks:    {"total", "total_count", "count"},
	domain.CapabilitySearch:   {"total", "total_count", "count"},
}

// document decodes the JSON document carried by p: structured content
// first, else the first text block. An empty payload is an empty list.
func document(p *domain.Payload) (any, *domain.Failure) {
	if p == nil {
		return []any{}, nil
	}

	var raw []byte
	switch {
	case len(bytes.TrimSpace(p.Structured)) > 0:
		raw = p.Structured
	default:
		for _, b := range p.Blocks {
			if b.Type == "text" || b.Type == "resource" {
				raw = []byte(b.Text)
				break
			}
		}
		if raw == nil {
			if len(p.Blocks) > 0 {
				return nil, domain.Failf(domain.FailureProtocol, "no text content in %d block(s)", len(p.Blocks))
			}
			return []any{}, nil
		}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []any{}, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.Failf(domain.FailureProtocol, "content is not json: %v", err)
	}
	return doc, nil
}

// records extracts the list of record objects and the reported count.
func records(c domain.Capability, doc any) ([]map[string]any, int, *domain.Failure) {
	reported := -1
	var list []any

	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		found := false
		for _, k := range listKeys[c] {
			if l, ok := v[k].([]any); ok {
				list, found = l, true
				break
			}
		}
		if !found {
			return nil, 0, domain.Failf(domain.FailureProtocol, "no %s list in response object", c)
		}
		for _, k := range countKeys[c] {
			if n, ok := intValue(v[k]); ok && n >= 0 {
				reported = n
				break
			}
		}
	default:
		return nil, 0, domain.Failf(domain.FailureProtocol, "expected a list or an object, got %s", kindOf(doc))
	}

	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, 0, domain.Failf(domain.FailureProtocol, "%s item %d is %s, not an object", c, i, kindOf(item))
		}
		out = append(out, obj)
	}
	return out, reported, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	default:
		return "unknown"
	}
}
