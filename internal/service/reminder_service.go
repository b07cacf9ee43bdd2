package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"taskplanner/internal/logging"
	"taskplanner/internal/model"
	"taskplanner/internal/notify"
	"taskplanner/internal/reminder"
)

// TaskLister is the read side of the task store.
type TaskLister interface {
	List(ctx context.Context) ([]model.Task, error)
}

// CategoryNamer resolves category ids for display.
type CategoryNamer interface {
	Names(ctx context.Context) (map[string]string, error)
}

// Snapshot is the outcome of one evaluation.
type Snapshot struct {
	At        time.Time
	Reminders []reminder.Reminder
	PanelOpen bool
	// AutoShown is set when this evaluation opened the panel.
	AutoShown bool
	// Notified lists the keys a notification was sent for in this pass.
	Notified []string
}

// ReminderService re-evaluates due tasks against the clock, tracks whether the
// reminder panel is showing and sends at most one notification per task while
// it stays in the notification window.
type ReminderService struct {
	mu         sync.Mutex
	tasks      TaskLister
	categories CategoryNamer
	notifier   notify.Notifier
	th         reminder.Thresholds
	now        Clock
	logger     logging.Logger

	current   []reminder.Reminder
	panelOpen bool
	notified  map[string]struct{}
}

// NewReminderService wires the evaluator. categories may be nil.
func NewReminderService(tasks TaskLister, categories CategoryNamer, notifier notify.Notifier, th reminder.Thresholds, now Clock, logger logging.Logger) *ReminderService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReminderService{
		tasks:      tasks,
		categories: categories,
		notifier:   notifier,
		th:         th,
		now:        now,
		logger:     logger,
		notified:   make(map[string]struct{}),
	}
}

// Evaluate recomputes the reminder set at the current instant. When the task
// store fails the previous state is kept and the error returned; the next
// evaluation starts from scratch.
func (s *ReminderService) Evaluate(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		s.logger.Error("evaluate reminders", "err", err)
		return Snapshot{At: s.now(), Reminders: s.current, PanelOpen: s.panelOpen}, err
	}

	now := s.now()
	reminders := reminder.Evaluate(tasks, now, s.th)
	snap := Snapshot{At: now, Reminders: reminders}

	if len(reminders) > 0 && len(s.current) == 0 && !s.panelOpen {
		s.panelOpen = true
		snap.AutoShown = true
	}
	s.current = reminders
	snap.PanelOpen = s.panelOpen
	snap.Notified = s.notifyLocked(ctx, reminders)

	s.logger.Debug("reminders evaluated", "count", len(reminders), "notified", len(snap.Notified))
	return snap, nil
}

func (s *ReminderService) notifyLocked(ctx context.Context, reminders []reminder.Reminder) []string {
	inWindow := make(map[string]struct{})
	var due []reminder.Reminder
	for _, r := range reminders {
		if reminder.ShouldNotify(r, s.th) {
			inWindow[r.Key()] = struct{}{}
			due = append(due, r)
		}
	}
	// forget tasks that left the window so a rescheduled task can fire again
	for key := range s.notified {
		if _, ok := inWindow[key]; !ok {
			delete(s.notified, key)
		}
	}

	if s.notifier == nil || s.notifier.Permission() != notify.PermissionGranted {
		return nil
	}

	var sent []string
	for _, r := range due {
		key := r.Key()
		if _, done := s.notified[key]; done {
			continue
		}
		n := notify.Notification{Title: r.Label(), Body: r.Message, Key: key}
		if err := s.notifier.Show(ctx, n); err != nil {
			s.logger.Warn("send notification", "key", key, "err", err)
			continue
		}
		s.notified[key] = struct{}{}
		sent = append(sent, key)
	}
	return sent
}

// Current returns the reminders from the last successful evaluation.
func (s *ReminderService) Current() []reminder.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reminder.Reminder(nil), s.current...)
}

func (s *ReminderService) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

func (s *ReminderService) ShowPanel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = true
}

// DismissPanel closes the panel. It will not reopen by itself until the
// reminder set has been empty at least once.
func (s *ReminderService) DismissPanel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = false
}

// Summary renders the current reminders as an HTML digest grouped by urgency.
func (s *ReminderService) Summary(ctx context.Context) (string, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return "", err
	}
	catNames := map[string]string{}
	if s.categories != nil {
		if catNames, err = s.categories.Names(ctx); err != nil {
			return "", err
		}
	}

	now := s.now()
	groups := reminder.Group(reminder.Evaluate(tasks, now, s.th))

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format(s.dateLayout())))

	if len(groups) == 0 {
		builder.WriteString("\nNothing is due. Enjoy the calm.\n")
		return strings.TrimSpace(builder.String()), nil
	}

	for _, section := range summarySections {
		list := groups[section.urgency]
		if len(list) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n%s <b>%s</b>\n", section.icon, section.title))
		for _, r := range list {
			builder.WriteString(formatReminder(r, catNames))
		}
	}
	return strings.TrimSpace(builder.String()), nil
}

func (s *ReminderService) dateLayout() string {
	if s.th.DateLayout == "" {
		return "2006-01-02"
	}
	return s.th.DateLayout
}

var summarySections = []struct {
	urgency reminder.Urgency
	icon    string
	title   string
}{
	{reminder.UrgencyOverdue, "⚠️", "Overdue"},
	{reminder.UrgencyImminent, "🔥", "Due soon"},
	{reminder.UrgencyUpcoming, "⏳", "Upcoming"},
	{reminder.UrgencyScheduled, "🗓", "Scheduled"},
}

func formatReminder(r reminder.Reminder, catNames map[string]string) string {
	var sb strings.Builder

	sb.WriteString("• " + html.EscapeString(strings.TrimSpace(r.Label())))

	var cats []string
	for _, id := range r.Task.CategoryIDs {
		if name := strings.TrimSpace(catNames[id]); name != "" {
			cats = append(cats, html.EscapeString(name))
		}
	}
	if len(cats) > 0 {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", strings.Join(cats, ", ")))
	}

	sb.WriteString(fmt.Sprintf("\n   ⏰ %s", html.EscapeString(r.Message)))

	if desc := strings.TrimSpace(r.Task.Description); desc != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(desc)))
	}

	sb.WriteByte('\n')
	return sb.String()
}
