package domain

import "time"

// Count is one entry of an ordered per-service count table.
type Count struct {
	Service string
	Count   int
}

// AggregationResult is a merged unified view.
//
// Total always equals the sum of Counts. Failed services appear only in Failures.
type AggregationResult[T any] struct {
	Total    int
	Counts   []Count
	Items    []T
	Failures map[string]*Failure
}

// CountMap flattens Counts into a map.
func (r AggregationResult[T]) CountMap() map[string]int {
	out := make(map[string]int, len(r.Counts))
	for _, c := range r.Counts {
		out[c.Service] = c.Count
	}
	return out
}

// SearchGroup holds the hits of one service for one domain.
type SearchGroup struct {
	Key     string
	Service string
	Domain  string
	Count   int
	Items   []SearchHit
}

// SearchResult groups hits by "<service>_<domain>".
type SearchResult struct {
	Query    string
	Total    int
	Groups   []SearchGroup
	Failures map[string]*Failure
}

// Summary is the headline of a briefing.
type Summary struct {
	UnreadMessages int `json:"unread_messages"`
	MeetingsToday  int `json:"meetings_today"`
	ActiveTasks    int `json:"active_tasks"`
}

// BriefingResult combines the three views with derived recommendations.
type BriefingResult struct {
	Date            string
	GeneratedAt     time.Time
	Summary         Summary
	Inbox           AggregationResult[Message]
	Calendar        AggregationResult[Event]
	Tasks           AggregationResult[Task]
	Recommendations []string
}

// HealthStatus is the probe verdict for one service.
type HealthStatus string

const (
	HealthHealthy     HealthStatus = "healthy"
	HealthDegraded    HealthStatus = "degraded"
	HealthUnreachable HealthStatus = "unreachable"
)

// HealthRecord is the probe result for one service.
type HealthRecord struct {
	Service         string
	Endpoint        string
	Status          HealthStatus
	Latency         time.Duration
	CapabilityCount int
	ToolsAvailable  int
	Error           *Failure
}

// HealthReport summarizes one health check run.
//
// Healthy + Unhealthy == Total. Degraded services answered and count as healthy.
type HealthReport struct {
	Timestamp time.Time
	Total     int
	Healthy   int
	Unhealthy int
	Degraded  int
	Services  []HealthRecord
}
