package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/integrator/internal/domain"
)

var defaultThresholds = Thresholds{Unread: 50, Meetings: 4, Tasks: 20}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name    string
		summary domain.Summary
		want    []string
	}{
		{
			name:    "quiet day",
			summary: domain.Summary{UnreadMessages: 50, MeetingsToday: 4, ActiveTasks: 20},
			want:    []string{},
		},
		{
			name:    "everything fires in order",
			summary: domain.Summary{UnreadMessages: 127, MeetingsToday: 5, ActiveTasks: 21},
			want: []string{
				"High inbox volume (127 unread). Consider scheduling inbox zero time.",
				"Heavy meeting day (5 meetings). Limited time for deep work.",
				"Many active tasks (21). Prioritize top 3-5 for today.",
			},
		},
		{
			name:    "tasks only",
			summary: domain.Summary{ActiveTasks: 30},
			want:    []string{"Many active tasks (30). Prioritize top 3-5 for today."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(tt.summary, defaultThresholds))
		})
	}
}

func TestBriefingKeepsTotalsAndTrimsOverviews(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	inbox := Inbox(outcomes(
		ok("outlook", `{"emails":`+messages(8, base)+`,"unread_count":45}`),
		ok("google", `{"emails":`+messages(2, base)+`,"unread_count":62}`),
	), 100)

	taskBodies := `[` + repeat(`{"content":"t"}`, 12) + `]`
	tasks := Tasks(outcomes(ok("todoist", taskBodies), failed("notion", domain.FailureTimeout)))

	calendar := Calendar(outcomes(ok("google", `[{"summary":"a","start":"2024-05-01T09:00:00Z"}]`)))

	now := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	b := Briefing(inbox, calendar, tasks, "2024-05-01", now, defaultThresholds)

	assert.Equal(t, "2024-05-01", b.Date)
	assert.Equal(t, now, b.GeneratedAt)
	assert.Equal(t, domain.Summary{UnreadMessages: 107, MeetingsToday: 1, ActiveTasks: 12}, b.Summary)

	assert.Len(t, b.Inbox.Items, OverviewMessages)
	assert.Equal(t, 107, b.Inbox.Total)
	assert.Len(t, b.Tasks.Items, OverviewTasks)
	assert.Equal(t, 12, b.Tasks.Total)
	require.Contains(t, b.Tasks.Failures, "notion")
	assert.Len(t, b.Calendar.Items, 1)

	assert.Equal(t, []string{"High inbox volume (107 unread). Consider scheduling inbox zero time."}, b.Recommendations)
	assert.Len(t, inbox.Items, 10, "input views are not modified")
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
