package domain

import "time"

// Message is a unified unread message (mail or chat).
type Message struct {
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject,omitempty"`
	Preview   string    `json:"preview,omitempty"`
	Read      bool      `json:"read"`
}

// Event is a unified calendar entry.
type Event struct {
	Service  string    `json:"service"`
	Start    time.Time `json:"start,omitzero"`
	End      time.Time `json:"end,omitzero"`
	Title    string    `json:"title"`
	Location string    `json:"location,omitempty"`
}

// Task is a unified task. Due and Priority are optional.
type Task struct {
	Service  string     `json:"service"`
	Title    string     `json:"title"`
	Status   string     `json:"status"`
	Due      *time.Time `json:"due,omitempty"`
	Priority *int       `json:"priority,omitempty"`
}

// SearchHit is one result from a cross-service search.
type SearchHit struct {
	Service   string     `json:"service"`
	Domain    string     `json:"domain"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet,omitempty"`
	URL       string     `json:"url,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
