package service

import (
	"context"
	"fmt"

	"taskplanner/internal/logging"
	"taskplanner/internal/model"
)

// Suggester proposes subtask titles for a task title.
type Suggester interface {
	SuggestSubtasks(ctx context.Context, title string) ([]string, error)
}

// SuggestionService breaks a task down with the help of a Suggester.
type SuggestionService struct {
	tasks     *TaskService
	suggester Suggester
	logger    logging.Logger
}

func NewSuggestionService(tasks *TaskService, suggester Suggester, logger logging.Logger) *SuggestionService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SuggestionService{tasks: tasks, suggester: suggester, logger: logger}
}

// Breakdown asks for subtasks of taskID and stores them. Nothing is written
// when the suggester fails.
func (s *SuggestionService) Breakdown(ctx context.Context, taskID string) ([]model.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	titles, err := s.suggester.SuggestSubtasks(ctx, task.Title)
	if err != nil {
		s.logger.Warn("suggest subtasks", "task", taskID, "err", err)
		return nil, fmt.Errorf("suggest subtasks: %w", err)
	}
	created, err := s.tasks.AddSubtasks(ctx, taskID, titles)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task broken down", "task", taskID, "subtasks", len(created))
	return created, nil
}
