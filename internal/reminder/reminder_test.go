package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskplanner/internal/model"
)

func pending(date, clock string) model.Task {
	return model.Task{ID: "t1", Title: "Pay rent", Status: model.StatusPending, DueDate: date, DueTime: clock}
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestClassifyNotCandidates(t *testing.T) {
	now := at(2025, 5, 17, 12, 0)
	th := DefaultThresholds()

	done := pending("2025-05-17", "")
	done.Status = model.StatusCompleted
	_, ok := Classify(done, now, th)
	assert.False(t, ok, "completed task")

	_, ok = Classify(pending("", "10:00"), now, th)
	assert.False(t, ok, "due time without due date is ignored")

	_, ok = Classify(pending("someday", ""), now, th)
	assert.False(t, ok, "unparseable date")
}

func TestClassifyTimedBoundaries(t *testing.T) {
	th := DefaultThresholds()
	now := at(2025, 5, 17, 12, 0)

	cases := []struct {
		name    string
		clock   string
		urgency Urgency
		message string
	}{
		{"exactly now", "12:00", UrgencyImminent, "Due in 0 minutes!"},
		{"five late", "11:55", UrgencyOverdue, "5 minutes overdue!"},
		{"thirty ahead", "12:30", UrgencyImminent, "Due in 30 minutes!"},
		{"thirty one ahead", "12:31", UrgencyImminent, "Due in less than an hour!"},
		{"sixty ahead", "13:00", UrgencyImminent, "Due in less than an hour!"},
		{"sixty one ahead", "13:01", UrgencyUpcoming, "Due in about 1 hour!"},
		{"ninety ahead", "13:30", UrgencyUpcoming, "Due in about 2 hours!"},
		{"one twenty ahead", "14:00", UrgencyUpcoming, "Due in about 2 hours!"},
		{"one twenty one ahead", "14:01", UrgencyScheduled, "Due at 14:01"},
		{"fifty nine late", "11:01", UrgencyOverdue, "59 minutes overdue!"},
		{"sixty late", "11:00", UrgencyOverdue, "1 hour overdue!"},
		{"one nineteen late", "10:01", UrgencyOverdue, "1 hour overdue!"},
		{"two hours late", "10:00", UrgencyOverdue, "2 hours overdue!"},
		{"nine hours late", "03:00", UrgencyOverdue, "9 hours overdue!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, ok := Classify(pending("2025-05-17", tc.clock), now, th)
			require.True(t, ok)
			assert.True(t, r.HasTime)
			assert.Equal(t, tc.urgency, r.Urgency)
			assert.Equal(t, tc.message, r.Message)
		})
	}
}

func TestClassifyOverADayLate(t *testing.T) {
	r, ok := Classify(pending("2025-05-16", "09:00"), at(2025, 5, 17, 12, 0), DefaultThresholds())
	require.True(t, ok)
	assert.Equal(t, UrgencyOverdue, r.Urgency)
	assert.Equal(t, "Over 1 day overdue!", r.Message)
}

func TestClassifySubMinuteLateIsOverdue(t *testing.T) {
	now := at(2025, 5, 17, 14, 0).Add(30 * time.Second)
	r, ok := Classify(pending("2025-05-17", "14:00"), now, DefaultThresholds())
	require.True(t, ok)
	assert.Equal(t, UrgencyOverdue, r.Urgency)
	assert.Equal(t, -1, r.DiffMinutes)
}

func TestClassifyFifteenMinutesAhead(t *testing.T) {
	r, ok := Classify(pending("2025-05-17", "14:00"), at(2025, 5, 17, 13, 45), DefaultThresholds())
	require.True(t, ok)
	assert.Equal(t, 15, r.DiffMinutes)
	assert.Equal(t, UrgencyImminent, r.Urgency)
	assert.Equal(t, "Due in 15 minutes!", r.Message)
}

func TestClassifyDateOnly(t *testing.T) {
	th := DefaultThresholds()
	now := at(2025, 5, 18, 9, 30)

	cases := []struct {
		date    string
		urgency Urgency
		message string
	}{
		{"2025-05-17", UrgencyOverdue, "Due yesterday!"},
		{"2025-05-15", UrgencyOverdue, "3 days overdue!"},
		{"2025-05-17T23:59", UrgencyOverdue, "Due yesterday!"},
		{"1700-05-18", UrgencyOverdue, "118704 days overdue!"},
		{"2025-05-18", UrgencyImminent, "Due today!"},
		{"2025-05-19", UrgencyUpcoming, "Due tomorrow!"},
		{"2025-05-21", UrgencyScheduled, "Due on Wed, May 21 2025"},
	}
	for _, tc := range cases {
		r, ok := Classify(pending(tc.date, ""), now, th)
		require.True(t, ok, tc.date)
		assert.False(t, r.HasTime)
		assert.Equal(t, tc.urgency, r.Urgency, tc.date)
		assert.Equal(t, tc.message, r.Message, tc.date)
	}
}

func TestClassifyDateOnlyProperty(t *testing.T) {
	th := DefaultThresholds()
	now := at(2025, 5, 18, 23, 59)
	for offset := -10; offset <= 10; offset++ {
		date := now.AddDate(0, 0, offset).Format("2006-01-02")
		r, ok := Classify(pending(date, ""), now, th)
		require.True(t, ok)
		switch {
		case offset < 0:
			assert.Equal(t, UrgencyOverdue, r.Urgency, date)
		case offset == 0:
			assert.Equal(t, UrgencyImminent, r.Urgency, date)
		case offset == 1:
			assert.Equal(t, UrgencyUpcoming, r.Urgency, date)
		default:
			assert.Equal(t, UrgencyScheduled, r.Urgency, date)
		}
	}
}

func TestClassifyBadTimeFallsBackToDate(t *testing.T) {
	r, ok := Classify(pending("2025-05-18", "noonish"), at(2025, 5, 18, 8, 0), DefaultThresholds())
	require.True(t, ok)
	assert.False(t, r.HasTime)
	assert.Equal(t, "Due today!", r.Message)
}

func TestShouldNotifyWindow(t *testing.T) {
	th := DefaultThresholds()
	for diff, want := range map[int]bool{-5: false, -4: true, 0: true, 60: true, 61: false} {
		assert.Equal(t, want, ShouldNotify(Reminder{HasTime: true, DiffMinutes: diff}, th), "diff %d", diff)
	}
	assert.False(t, ShouldNotify(Reminder{HasTime: false, DiffMinutes: 0}, th))
}

func TestEvaluateOrdersAndAttachesPath(t *testing.T) {
	parent := "p"
	tasks := []model.Task{
		{ID: "later", Title: "Later", Status: model.StatusPending, DueDate: "2025-05-25"},
		{ID: "p", Title: "Move house", Status: model.StatusPending},
		{ID: "soon", Title: "Book van", Status: model.StatusPending, DueDate: "2025-05-18", DueTime: "10:00", ParentID: &parent},
		{ID: "late", Title: "Return keys", Status: model.StatusPending, DueDate: "2025-05-10"},
		{ID: "done", Title: "Done", Status: model.StatusCompleted, DueDate: "2025-05-10"},
	}
	got := Evaluate(tasks, at(2025, 5, 18, 9, 45), DefaultThresholds())
	require.Len(t, got, 3)
	assert.Equal(t, "late", got[0].Task.ID)
	assert.Equal(t, "soon", got[1].Task.ID)
	assert.Equal(t, "Move house › Book van", got[1].Label())
	assert.Equal(t, "task-soon", got[1].Key())
	assert.Equal(t, "later", got[2].Task.ID)

	groups := Group(got)
	assert.Len(t, groups[UrgencyOverdue], 1)
	assert.Len(t, groups[UrgencyScheduled], 1)
}
