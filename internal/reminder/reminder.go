// Package reminder classifies tasks by how close they are to being due.
package reminder

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"taskplanner/internal/model"
	"taskplanner/internal/timeutil"
)

type Urgency string

const (
	UrgencyNone      Urgency = ""
	UrgencyOverdue   Urgency = "overdue"
	UrgencyImminent  Urgency = "imminent"
	UrgencyUpcoming  Urgency = "upcoming"
	UrgencyScheduled Urgency = "scheduled"
)

func (u Urgency) rank() int {
	switch u {
	case UrgencyOverdue:
		return 0
	case UrgencyImminent:
		return 1
	case UrgencyUpcoming:
		return 2
	case UrgencyScheduled:
		return 3
	default:
		return 4
	}
}

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * 60
)

// Thresholds are the minute breakpoints of the time-aware path. The display
// banding (UpcomingMinutes) and the notification window (NotifyLeadMinutes) are
// configured separately.
type Thresholds struct {
	ImminentMinutes    int
	SoonMinutes        int
	UpcomingMinutes    int
	NotifyLeadMinutes  int
	NotifyGraceMinutes int
	ClockLayout        string
	DateLayout         string
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ImminentMinutes:    30,
		SoonMinutes:        60,
		UpcomingMinutes:    120,
		NotifyLeadMinutes:  60,
		NotifyGraceMinutes: 5,
		ClockLayout:        timeutil.ClockLayout,
		DateLayout:         "Mon, Jan 2 2006",
	}
}

// Reminder is the classification of one due task.
type Reminder struct {
	Task        model.Task
	Urgency     Urgency
	Message     string
	HasTime     bool
	DiffMinutes int
	Due         time.Time
	Path        []string
}

// Key identifies the reminder for notification de-duplication.
func (r Reminder) Key() string {
	return "task-" + r.Task.ID
}

// Label prefixes the title with its ancestors, e.g. "Launch › Build".
func (r Reminder) Label() string {
	return model.JoinPath(r.Path, r.Task.Title)
}

// Classify decides whether task is a reminder candidate at now and, if so, how
// urgent it is. Completed tasks and tasks without a usable due date are not
// candidates. An unparseable due time falls back to the date-only rules.
func Classify(task model.Task, now time.Time, th Thresholds) (Reminder, bool) {
	if task.IsCompleted() || strings.TrimSpace(task.DueDate) == "" {
		return Reminder{}, false
	}
	loc := now.Location()
	dueDay, ok := timeutil.Parse(task.DueDate, loc)
	if !ok {
		return Reminder{}, false
	}

	if task.DueTime != "" {
		if due, ok := timeutil.CombineDateTime(task.DueDate, task.DueTime, loc); ok {
			return classifyTimed(task, due, now, th), true
		}
	}
	return classifyDate(task, timeutil.StartOfDay(dueDay), now, th), true
}

// DiffMinutes is the floor of the signed minutes from now until due, so any
// instant strictly before now is negative.
func DiffMinutes(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Minutes()))
}

func classifyTimed(task model.Task, due, now time.Time, th Thresholds) Reminder {
	diff := DiffMinutes(due, now)
	r := Reminder{Task: task, HasTime: true, DiffMinutes: diff, Due: due}

	switch {
	case diff < 0:
		r.Urgency = UrgencyOverdue
		r.Message = overdueMessage(-diff)
	case diff <= th.ImminentMinutes:
		r.Urgency = UrgencyImminent
		r.Message = fmt.Sprintf("Due in %d minutes!", diff)
	case diff <= th.SoonMinutes:
		r.Urgency = UrgencyImminent
		r.Message = "Due in less than an hour!"
	case diff <= th.UpcomingMinutes:
		r.Urgency = UrgencyUpcoming
		hours := int(math.Round(float64(diff) / minutesPerHour))
		if hours <= 1 {
			r.Message = "Due in about 1 hour!"
		} else {
			r.Message = fmt.Sprintf("Due in about %d hours!", hours)
		}
	default:
		r.Urgency = UrgencyScheduled
		r.Message = "Due at " + due.Format(clockLayout(th))
	}
	return r
}

func overdueMessage(minutes int) string {
	switch {
	case minutes < minutesPerHour:
		return fmt.Sprintf("%d minutes overdue!", minutes)
	case minutes < 2*minutesPerHour:
		return "1 hour overdue!"
	case minutes < minutesPerDay:
		return fmt.Sprintf("%d hours overdue!", minutes/minutesPerHour)
	default:
		return "Over 1 day overdue!"
	}
}

func classifyDate(task model.Task, dueDay, now time.Time, th Thresholds) Reminder {
	days := timeutil.DaysBetween(timeutil.StartOfDay(now), dueDay)
	r := Reminder{Task: task, DiffMinutes: days * minutesPerDay, Due: dueDay}

	switch {
	case timeutil.IsBefore(task.DueDate, now):
		r.Urgency = UrgencyOverdue
		if days == -1 {
			r.Message = "Due yesterday!"
		} else {
			r.Message = fmt.Sprintf("%d days overdue!", -days)
		}
	case days == 0:
		r.Urgency = UrgencyImminent
		r.Message = "Due today!"
	case days == 1:
		r.Urgency = UrgencyUpcoming
		r.Message = "Due tomorrow!"
	default:
		r.Urgency = UrgencyScheduled
		layout := th.DateLayout
		if layout == "" {
			layout = timeutil.DateLayout
		}
		r.Message = "Due on " + dueDay.Format(layout)
	}
	return r
}

func clockLayout(th Thresholds) string {
	if th.ClockLayout == "" {
		return timeutil.ClockLayout
	}
	return th.ClockLayout
}

// ShouldNotify reports whether r falls inside the notification window
// (-grace, lead] minutes. Only time-aware reminders qualify.
func ShouldNotify(r Reminder, th Thresholds) bool {
	if !r.HasTime {
		return false
	}
	return r.DiffMinutes > -th.NotifyGraceMinutes && r.DiffMinutes <= th.NotifyLeadMinutes
}

// Evaluate classifies every task and returns the candidates ordered by urgency
// and then due instant. Parent paths come from one index built for the pass.
func Evaluate(tasks []model.Task, now time.Time, th Thresholds) []Reminder {
	idx := model.NewTaskIndex(tasks)
	out := make([]Reminder, 0)
	for _, task := range tasks {
		r, ok := Classify(task, now, th)
		if !ok {
			continue
		}
		r.Path = idx.Path(task.ID)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Urgency.rank(), out[j].Urgency.rank(); ri != rj {
			return ri < rj
		}
		return out[i].Due.Before(out[j].Due)
	})
	return out
}

// Group buckets reminders by urgency, keeping their order.
func Group(reminders []Reminder) map[Urgency][]Reminder {
	out := make(map[Urgency][]Reminder)
	for _, r := range reminders {
		out[r.Urgency] = append(out[r.Urgency], r)
	}
	return out
}
