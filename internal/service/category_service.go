package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"taskplanner/internal/model"
	"taskplanner/internal/repository"
)

// CategoryService manages categories and projects. Deleting either one
// detaches it from every task; the tasks themselves stay.
type CategoryService struct {
	mu           sync.Mutex
	categoryRepo *repository.CategoryRepository
	projectRepo  *repository.ProjectRepository
	tasks        *TaskService
}

func NewCategoryService(categoryRepo *repository.CategoryRepository, projectRepo *repository.ProjectRepository, tasks *TaskService) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, projectRepo: projectRepo, tasks: tasks}
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.List(ctx)
}

// Names maps category ids to display names.
func (s *CategoryService) Names(ctx context.Context) (map[string]string, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, name, color string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return nil, fmt.Errorf("category %q already exists", name)
		}
	}
	category := model.Category{ID: uuid.NewString(), Name: name, Color: color}
	if err := s.categoryRepo.ReplaceAll(ctx, append(categories, category)); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return err
	}
	kept := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(categories) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	if err := s.categoryRepo.ReplaceAll(ctx, kept); err != nil {
		return err
	}

	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return err
	}
	for i := range projects {
		projects[i].CategoryIDs = without(projects[i].CategoryIDs, id)
	}
	if err := s.projectRepo.ReplaceAll(ctx, projects); err != nil {
		return err
	}
	return s.tasks.detach(ctx, id, "")
}

func (s *CategoryService) ListProjects(ctx context.Context) ([]model.Project, error) {
	return s.projectRepo.List(ctx)
}

func (s *CategoryService) CreateProject(ctx context.Context, project model.Project) (*model.Project, error) {
	project.Name = strings.TrimSpace(project.Name)
	if project.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if !project.Priority.IsValid() {
		return nil, model.ErrInvalidPriority
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.ReplaceAll(ctx, append(projects, project)); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *CategoryService) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return err
	}
	kept := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(projects) {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err := s.projectRepo.ReplaceAll(ctx, kept); err != nil {
		return err
	}
	return s.tasks.detach(ctx, "", id)
}

func without(ids []string, id string) []string {
	if len(ids) == 0 {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
