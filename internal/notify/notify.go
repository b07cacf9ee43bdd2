// Package notify defines the notification port the reminder poller talks to.
package notify

import (
	"context"
	"sync"

	"taskplanner/internal/logging"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Notification is one message to show. Key lets the display side collapse
// repeats of the same reminder.
type Notification struct {
	Title string
	Body  string
	Key   string
}

type Notifier interface {
	Permission() Permission
	Show(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. It is used when no chat is
// configured.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Permission() Permission {
	return PermissionGranted
}

func (n *LogNotifier) Show(_ context.Context, msg Notification) error {
	n.logger.Info(msg.Title, "body", msg.Body, "key", msg.Key)
	return nil
}

// Recorder keeps every notification in memory.
type Recorder struct {
	Granted Permission
	Shown   []Notification
}

func (r *Recorder) Permission() Permission {
	if r.Granted == "" {
		return PermissionDefault
	}
	return r.Granted
}

func (r *Recorder) Show(_ context.Context, n Notification) error {
	r.Shown = append(r.Shown, n)
	return nil
}

// Relay forwards to a notifier chosen after the reminder service is built, so
// a sink that itself depends on the service (the chat bot) can be attached.
type Relay struct {
	mu     sync.RWMutex
	target Notifier
}

// NewRelay starts out forwarding to fallback.
func NewRelay(fallback Notifier) *Relay {
	return &Relay{target: fallback}
}

func (r *Relay) Use(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = n
}

func (r *Relay) Permission() Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.target == nil {
		return PermissionDefault
	}
	return r.target.Permission()
}

func (r *Relay) Show(ctx context.Context, n Notification) error {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target == nil {
		return nil
	}
	return target.Show(ctx, n)
}
