package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"taskplanner/internal/model"
	"taskplanner/internal/repository"
)

const BackupVersion = "1.0"

var ErrInvalidBackup = errors.New("service: invalid backup")

// Backup is the export document.
type Backup struct {
	Tasks      []model.Task     `json:"tasks"`
	Categories []model.Category `json:"categories"`
	Projects   []model.Project  `json:"projects"`
	ExportDate time.Time        `json:"exportDate"`
	Version    string           `json:"version"`
}

// ImportStats counts what an import stored.
type ImportStats struct {
	Tasks      int
	Categories int
	Projects   int
}

// BackupService exports and imports the task, category and project
// collections as one JSON document.
type BackupService struct {
	kv         repository.KV
	tasks      *TaskService
	categories *repository.CategoryRepository
	projects   *repository.ProjectRepository
	now        Clock
}

func NewBackupService(kv repository.KV, tasks *TaskService, categories *repository.CategoryRepository, projects *repository.ProjectRepository, now Clock) *BackupService {
	if now == nil {
		now = time.Now
	}
	return &BackupService{kv: kv, tasks: tasks, categories: categories, projects: projects, now: now}
}

func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return err
	}
	projects, err := s.projects.List(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Backup{
		Tasks:      tasks,
		Categories: categories,
		Projects:   projects,
		ExportDate: s.now().UTC(),
		Version:    BackupVersion,
	})
}

// Import replaces all three collections with the ones in r. Nothing is written
// unless the whole document is valid.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (ImportStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportStats{}, fmt.Errorf("read backup: %w", err)
	}
	// Unmarshal rather than a streaming decoder so trailing data is rejected.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ImportStats{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	var (
		tasks      []model.Task
		categories []model.Category
		projects   []model.Project
	)
	if err := decodeArray(raw, repository.KeyTasks, &tasks); err != nil {
		return ImportStats{}, err
	}
	if err := decodeArray(raw, repository.KeyCategories, &categories); err != nil {
		return ImportStats{}, err
	}
	if err := decodeArray(raw, repository.KeyProjects, &projects); err != nil {
		return ImportStats{}, err
	}
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return ImportStats{}, fmt.Errorf("%w: task %q: %v", ErrInvalidBackup, t.ID, err)
		}
	}

	s.tasks.mu.Lock()
	err = s.kv.SaveAll(ctx, map[string]any{
		repository.KeyTasks:      tasks,
		repository.KeyCategories: categories,
		repository.KeyProjects:   projects,
	})
	s.tasks.mu.Unlock()
	if err != nil {
		return ImportStats{}, fmt.Errorf("import: %w", err)
	}
	s.tasks.notify(ctx)

	return ImportStats{Tasks: len(tasks), Categories: len(categories), Projects: len(projects)}, nil
}

func decodeArray(raw map[string]json.RawMessage, key string, dest any) error {
	value, ok := raw[key]
	if !ok {
		return fmt.Errorf("%w: missing %q", ErrInvalidBackup, key)
	}
	if trimmed := bytes.TrimSpace(value); len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: %q is not an array", ErrInvalidBackup, key)
	}
	if err := json.Unmarshal(value, dest); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidBackup, key, err)
	}
	return nil
}
