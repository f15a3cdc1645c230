package aggregate

import (
	"fmt"
	"time"

	"github.com/MrSnakeDoc/integrator/internal/domain"
)

const (
	// OverviewMessages is the number of messages kept in a briefing.
	OverviewMessages = 5
	// OverviewTasks is the number of tasks kept in a briefing.
	OverviewTasks = 10
)

// Thresholds drive briefing recommendations. A rule fires when the value
// is strictly above its threshold.
type Thresholds struct {
	Unread   int
	Meetings int
	Tasks    int
}

// Briefing combines the three views. Overviews keep the top messages, every
// event and the top tasks; summary figures use the full totals.
func Briefing(
	inbox domain.AggregationResult[domain.Message],
	calendar domain.AggregationResult[domain.Event],
	tasks domain.AggregationResult[domain.Task],
	date string,
	now time.Time,
	th Thresholds,
) domain.BriefingResult {
	summary := domain.Summary{
		UnreadMessages: inbox.Total,
		MeetingsToday:  calendar.Total,
		ActiveTasks:    tasks.Total,
	}

	inbox.Items = head(inbox.Items, OverviewMessages)
	tasks.Items = head(tasks.Items, OverviewTasks)

	return domain.BriefingResult{
		Date:            date,
		GeneratedAt:     now,
		Summary:         summary,
		Inbox:           inbox,
		Calendar:        calendar,
		Tasks:           tasks,
		Recommendations: Recommend(summary, th),
	}
}

// Recommend evaluates the threshold rules in a fixed order: inbox,
// calendar, tasks. It never returns nil.
func Recommend(s domain.Summary, th Thresholds) []string {
	out := []string{}
	if s.UnreadMessages > th.Unread {
		out = append(out, fmt.Sprintf("High inbox volume (%d unread). Consider scheduling inbox zero time.", s.UnreadMessages))
	}
	if s.MeetingsToday > th.Meetings {
		out = append(out, fmt.Sprintf("Heavy meeting day (%d meetings). Limited time for deep work.", s.MeetingsToday))
	}
	if s.ActiveTasks > th.Tasks {
		out = append(out, fmt.Sprintf("Many active tasks (%d). Prioritize top 3-5 for today.", s.ActiveTasks))
	}
	return out
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return append([]T(nil), items[:n]...)
	}
	return items
}
