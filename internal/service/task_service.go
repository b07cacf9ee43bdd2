package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskplanner/internal/model"
	"taskplanner/internal/repository"
	"taskplanner/internal/timeutil"
)

var (
	ErrTaskNotFound     = errors.New("service: task not found")
	ErrInvalidDueDate   = errors.New("service: invalid due date")
	ErrInvalidDueTime   = errors.New("service: invalid due time")
	ErrTimerRunning     = errors.New("service: timer already running")
	ErrTimerNotRunning  = errors.New("service: timer not running")
	ErrCategoryNotFound = errors.New("service: category not found")
	ErrProjectNotFound  = errors.New("service: project not found")
	ErrBlockNotFound    = errors.New("service: time block not found")
)

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title            string
	Description      string
	DueDate          string
	DueTime          string
	ParentID         *string
	ProjectID        *string
	Priority         model.Priority
	CategoryIDs      []string
	EstimatedMinutes *int
}

// TaskService wraps task-related business logic. Every write loads the whole
// collection, builds a new slice and stores it back.
type TaskService struct {
	mu        sync.Mutex
	taskRepo  *repository.TaskRepository
	now       Clock
	listeners []func(context.Context)
}

func NewTaskService(taskRepo *repository.TaskRepository, now Clock) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{taskRepo: taskRepo, now: now}
}

// OnChange registers fn to run after every successful write.
func (s *TaskService) OnChange(fn func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.List(ctx)
}

// DueBetween returns the pending tasks whose due day lies in [start, end).
func (s *TaskService) DueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Task
	for _, t := range tasks {
		if !t.IsCompleted() && timeutil.IsBetween(t.DueDate, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if err := validateDue(input.DueDate, input.DueTime); err != nil {
		return nil, err
	}

	task := model.Task{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		DueDate:          input.DueDate,
		DueTime:          input.DueTime,
		Status:           model.StatusPending,
		ParentID:         input.ParentID,
		ProjectID:        input.ProjectID,
		Priority:         input.Priority,
		CategoryIDs:      input.CategoryIDs,
		EstimatedMinutes: input.EstimatedMinutes,
		CreatedAt:        s.now(),
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		if task.ParentID != nil && indexOf(tasks, *task.ParentID) < 0 {
			return nil, fmt.Errorf("%w: parent %s", ErrTaskNotFound, *task.ParentID)
		}
		return append(tasks, task), nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// AddSubtasks creates one pending child of parentID per title, skipping blanks.
func (s *TaskService) AddSubtasks(ctx context.Context, parentID string, titles []string) ([]model.Task, error) {
	var created []model.Task
	err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		i := indexOf(tasks, parentID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, parentID)
		}
		parent := tasks[i]
		for _, title := range titles {
			title = strings.TrimSpace(title)
			if title == "" {
				continue
			}
			pid := parent.ID
			created = append(created, model.Task{
				ID:          uuid.NewString(),
				Title:       title,
				Status:      model.StatusPending,
				ParentID:    &pid,
				ProjectID:   parent.ProjectID,
				CategoryIDs: append([]string(nil), parent.CategoryIDs...),
				CreatedAt:   s.now(),
			})
		}
		return append(tasks, created...), nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTask replaces the stored task with the same id.
func (s *TaskService) UpdateTask(ctx context.Context, task model.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if err := validateDue(task.DueDate, task.DueTime); err != nil {
		return err
	}
	return s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		i := indexOf(tasks, task.ID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, task.ID)
		}
		tasks[i] = task
		return tasks, nil
	})
}

// ToggleComplete flips a task between pending and completed.
func (s *TaskService) ToggleComplete(ctx context.Context, id string) (*model.Task, error) {
	return s.update(ctx, id, func(t *model.Task) error {
		if t.IsCompleted() {
			t.Status = model.StatusPending
			t.CompletedAt = nil
			return nil
		}
		now := s.now()
		t.Status = model.StatusCompleted
		t.CompletedAt = &now
		return nil
	})
}

// CompleteTask marks a task as done; completing a done task is a no-op.
func (s *TaskService) CompleteTask(ctx context.Context, id string) (*model.Task, error) {
	return s.update(ctx, id, func(t *model.Task) error {
		if t.IsCompleted() {
			return nil
		}
		now := s.now()
		t.Status = model.StatusCompleted
		t.CompletedAt = &now
		return nil
	})
}

// DeleteTask removes a task together with all of its subtasks.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	return s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		if indexOf(tasks, id) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		drop := map[string]bool{id: true}
		for _, d := range model.NewTaskIndex(tasks).Descendants(id) {
			drop[d] = true
		}
		out := make([]model.Task, 0, len(tasks))
		for _, t := range tasks {
			if !drop[t.ID] {
				out = append(out, t)
			}
		}
		return out, nil
	})
}

// StartTimer begins a focus session on the task.
func (s *TaskService) StartTimer(ctx context.Context, id string) (*model.Task, error) {
	return s.update(ctx, id, func(t *model.Task) error {
		if t.TimerStartedAt != nil && t.TimerCompletedAt == nil {
			return ErrTimerRunning
		}
		now := s.now()
		t.TimerStartedAt = &now
		t.TimerCompletedAt = nil
		return nil
	})
}

// StopTimer ends the running focus session and adds the elapsed minutes,
// rounded up, to the task's actual minutes.
func (s *TaskService) StopTimer(ctx context.Context, id string) (*model.Task, error) {
	return s.update(ctx, id, func(t *model.Task) error {
		if t.TimerStartedAt == nil || t.TimerCompletedAt != nil {
			return ErrTimerNotRunning
		}
		now := s.now()
		elapsed := int(math.Ceil(now.Sub(*t.TimerStartedAt).Minutes()))
		if elapsed < 1 {
			elapsed = 1
		}
		total := elapsed
		if t.ActualMinutes != nil {
			total += *t.ActualMinutes
		}
		t.TimerCompletedAt = &now
		t.ActualMinutes = &total
		return nil
	})
}

// detach clears category and project references without deleting tasks.
func (s *TaskService) detach(ctx context.Context, categoryID, projectID string) error {
	return s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		for i := range tasks {
			if categoryID != "" && tasks[i].HasCategory(categoryID) {
				tasks[i].CategoryIDs = without(tasks[i].CategoryIDs, categoryID)
			}
			if projectID != "" && tasks[i].ProjectID != nil && *tasks[i].ProjectID == projectID {
				tasks[i].ProjectID = nil
			}
		}
		return tasks, nil
	})
}

func (s *TaskService) notify(ctx context.Context) {
	s.mu.Lock()
	listeners := append([]func(context.Context){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ctx)
	}
}

func (s *TaskService) update(ctx context.Context, id string, fn func(*model.Task) error) (*model.Task, error) {
	var updated model.Task
	err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		if err := fn(&tasks[i]); err != nil {
			return nil, err
		}
		updated = tasks[i]
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// mutate runs fn on a fresh copy of the collection and stores the result.
func (s *TaskService) mutate(ctx context.Context, fn func([]model.Task) ([]model.Task, error)) error {
	s.mu.Lock()
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next, err := fn(tasks)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.taskRepo.ReplaceAll(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	s.notify(ctx)
	return nil
}

func indexOf(tasks []model.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func validateDue(date, clock string) error {
	if date != "" {
		if _, ok := timeutil.Parse(date, time.UTC); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidDueDate, date)
		}
	}
	if clock != "" {
		if _, _, ok := timeutil.ParseClock(clock); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidDueTime, clock)
		}
	}
	return nil
}
