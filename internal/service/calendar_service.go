package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskplanner/internal/calendar"
	"taskplanner/internal/logging"
	"taskplanner/internal/model"
	"taskplanner/internal/repository"
	"taskplanner/internal/timeutil"
)

// CalendarService mirrors a day's time blocks into the calendar event list.
type CalendarService struct {
	mu     sync.Mutex
	events *repository.CalendarEventRepository
	blocks *repository.TimeBlockRepository
	tasks  TaskLister
	logger logging.Logger
}

func NewCalendarService(events *repository.CalendarEventRepository, blocks *repository.TimeBlockRepository, tasks TaskLister, logger logging.Logger) *CalendarService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CalendarService{events: events, blocks: blocks, tasks: tasks, logger: logger}
}

// Sync replaces the planner events of date with fresh ones built from blocks
// and returns the whole stored list. Running it twice with the same input
// stores the same list. A storage failure is logged and yields an empty slice.
func (s *CalendarService) Sync(ctx context.Context, blocks []model.TimeBlock, date string, tasks []model.Task) []model.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.events.List(ctx)
	if err != nil {
		s.logger.Error("load calendar events", "date", date, "err", err)
		return []model.CalendarEvent{}
	}
	merged := calendar.Merge(existing, date, calendar.Events(blocks, date, tasks))
	if err := s.events.ReplaceAll(ctx, merged); err != nil {
		s.logger.Error("save calendar events", "date", date, "err", err)
		return []model.CalendarEvent{}
	}
	s.logger.Debug("calendar synced", "date", date, "blocks", len(blocks), "events", len(merged))
	return merged
}

// SyncDay syncs date from the stored blocks and tasks.
func (s *CalendarService) SyncDay(ctx context.Context, date string) []model.CalendarEvent {
	blocks, err := s.blocks.List(ctx, date)
	if err != nil {
		s.logger.Error("load time blocks", "date", date, "err", err)
		return []model.CalendarEvent{}
	}
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		s.logger.Error("load tasks", "err", err)
		return []model.CalendarEvent{}
	}
	return s.Sync(ctx, blocks, date, tasks)
}

// SyncAll syncs every date that has stored blocks and returns those dates.
func (s *CalendarService) SyncAll(ctx context.Context) []string {
	dates, err := s.blocks.Dates(ctx)
	if err != nil {
		s.logger.Error("list planned dates", "err", err)
		return nil
	}
	for _, date := range dates {
		s.SyncDay(ctx, date)
	}
	return dates
}

// EventsOn lists stored events of any source starting on date.
func (s *CalendarService) EventsOn(ctx context.Context, date string) ([]model.CalendarEvent, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.OnDate(events, date), nil
}

// TimeBlockService edits the per-date block lists. Blocks only reference tasks;
// removing a block or an assignment never touches the tasks.
type TimeBlockService struct {
	mu   sync.Mutex
	repo *repository.TimeBlockRepository
}

func NewTimeBlockService(repo *repository.TimeBlockRepository) *TimeBlockService {
	return &TimeBlockService{repo: repo}
}

func (s *TimeBlockService) List(ctx context.Context, date string) ([]model.TimeBlock, error) {
	return s.repo.List(ctx, date)
}

// Save inserts block or replaces the one with the same id. A block without an
// id gets a new one.
func (s *TimeBlockService) Save(ctx context.Context, date string, block model.TimeBlock) (*model.TimeBlock, error) {
	if _, err := time.Parse(timeutil.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDueDate, date)
	}
	for _, clock := range []string{block.StartTime, block.EndTime} {
		if _, _, ok := timeutil.ParseClock(clock); !ok {
			return nil, fmt.Errorf("invalid block time %q", clock)
		}
	}
	block.Title = strings.TrimSpace(block.Title)
	if block.ID == "" {
		block.ID = uuid.NewString()
	}

	err := s.mutate(ctx, date, func(blocks []model.TimeBlock) ([]model.TimeBlock, error) {
		for i := range blocks {
			if blocks[i].ID == block.ID {
				blocks[i] = block
				return blocks, nil
			}
		}
		return append(blocks, block), nil
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *TimeBlockService) Delete(ctx context.Context, date, blockID string) error {
	return s.mutate(ctx, date, func(blocks []model.TimeBlock) ([]model.TimeBlock, error) {
		out := make([]model.TimeBlock, 0, len(blocks))
		for _, b := range blocks {
			if b.ID != blockID {
				out = append(out, b)
			}
		}
		if len(out) == len(blocks) {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
		}
		return out, nil
	})
}

// Assign adds taskID to the block; assigning twice is a no-op.
func (s *TimeBlockService) Assign(ctx context.Context, date, blockID, taskID string) error {
	return s.updateBlock(ctx, date, blockID, func(b *model.TimeBlock) {
		if !b.HasTask(taskID) {
			b.TaskIDs = append(b.TaskIDs, taskID)
		}
	})
}

func (s *TimeBlockService) Unassign(ctx context.Context, date, blockID, taskID string) error {
	return s.updateBlock(ctx, date, blockID, func(b *model.TimeBlock) {
		b.TaskIDs = without(b.TaskIDs, taskID)
	})
}

func (s *TimeBlockService) updateBlock(ctx context.Context, date, blockID string, fn func(*model.TimeBlock)) error {
	return s.mutate(ctx, date, func(blocks []model.TimeBlock) ([]model.TimeBlock, error) {
		for i := range blocks {
			if blocks[i].ID == blockID {
				fn(&blocks[i])
				return blocks, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	})
}

func (s *TimeBlockService) mutate(ctx context.Context, date string, fn func([]model.TimeBlock) ([]model.TimeBlock, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks, err := s.repo.List(ctx, date)
	if err != nil {
		return err
	}
	next, err := fn(blocks)
	if err != nil {
		return err
	}
	return s.repo.ReplaceAll(ctx, date, next)
}
