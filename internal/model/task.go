package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidPriority = errors.New("model: invalid task priority")
)

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityNone     Priority = ""
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Task represents a single item in the planner. DueDate is YYYY-MM-DD and
// DueTime is HH:MM; a DueTime without a DueDate carries no meaning.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	DueDate          string     `json:"dueDate,omitempty"`
	DueTime          string     `json:"dueTime,omitempty"`
	Status           TaskStatus `json:"status"`
	ParentID         *string    `json:"parentId,omitempty"`
	Priority         Priority   `json:"priority,omitempty"`
	CategoryIDs      []string   `json:"categoryIds,omitempty"`
	ProjectID        *string    `json:"projectId,omitempty"`
	EstimatedMinutes *int       `json:"estimatedMinutes,omitempty"`
	TimerStartedAt   *time.Time `json:"timerStartedAt,omitempty"`
	TimerCompletedAt *time.Time `json:"timerCompletedAt,omitempty"`
	ActualMinutes    *int       `json:"actualMinutes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

func (t Task) IsSubtask() bool {
	return t.ParentID != nil && *t.ParentID != ""
}

func (t Task) HasCategory(id string) bool {
	for _, c := range t.CategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.ParentID != nil && *t.ParentID == t.ID {
		return errors.New("model: task cannot be its own parent")
	}
	return nil
}
