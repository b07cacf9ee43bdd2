package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"taskplanner/internal/logging"
)

// DefaultPollInterval matches the cadence at which urgency can change without
// any task being edited.
const DefaultPollInterval = time.Minute

// ReminderPoller drives ReminderService on a fixed cadence and whenever the task
// set changes. Evaluations never overlap: the service serializes them.
type ReminderPoller struct {
	svc       *ReminderService
	scheduler *SchedulerService
	interval  time.Duration
	logger    logging.Logger

	mu         sync.Mutex
	ctx        context.Context
	entry      cron.EntryID
	running    bool
	onSnapshot []func(Snapshot)
}

func NewReminderPoller(svc *ReminderService, scheduler *SchedulerService, interval time.Duration, logger logging.Logger) *ReminderPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReminderPoller{svc: svc, scheduler: scheduler, interval: interval, logger: logger}
}

// OnSnapshot registers fn to receive every successful evaluation.
func (p *ReminderPoller) OnSnapshot(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSnapshot = append(p.onSnapshot, fn)
}

// Start evaluates once right away and then on every interval until Stop is
// called or ctx is done. Starting a running poller is a no-op.
func (p *ReminderPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	entry, err := p.scheduler.ScheduleInterval(p.interval, p.Trigger)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("schedule reminder poll: %w", err)
	}
	p.ctx = ctx
	p.entry = entry
	p.running = true
	p.mu.Unlock()

	p.logger.Info("reminder poller started", "interval", p.interval)
	p.Trigger()
	return nil
}

// Stop removes the scheduled tick. Later triggers do nothing.
func (p *ReminderPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.scheduler.Remove(p.entry)
	p.running = false
	p.logger.Info("reminder poller stopped")
}

func (p *ReminderPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trigger runs one evaluation now. It is the tick job and the task-change hook.
func (p *ReminderPoller) Trigger() {
	p.mu.Lock()
	if !p.running || p.ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	listeners := append([]func(Snapshot){}, p.onSnapshot...)
	p.mu.Unlock()

	snap, err := p.svc.Evaluate(ctx)
	if err != nil {
		return
	}
	for _, fn := range listeners {
		fn(snap)
	}
}
