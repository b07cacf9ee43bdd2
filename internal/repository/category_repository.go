package repository

import (
	"context"

	"taskplanner/internal/model"
)

// CategoryRepository manages task categories.
type CategoryRepository struct {
	kv KV
}

func NewCategoryRepository(kv KV) *CategoryRepository {
	return &CategoryRepository{kv: kv}
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	return loadList[model.Category](ctx, r.kv, KeyCategories)
}

func (r *CategoryRepository) ReplaceAll(ctx context.Context, categories []model.Category) error {
	return r.kv.Save(ctx, KeyCategories, categories)
}

// ProjectRepository manages projects.
type ProjectRepository struct {
	kv KV
}

func NewProjectRepository(kv KV) *ProjectRepository {
	return &ProjectRepository{kv: kv}
}

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	return loadList[model.Project](ctx, r.kv, KeyProjects)
}

func (r *ProjectRepository) ReplaceAll(ctx context.Context, projects []model.Project) error {
	return r.kv.Save(ctx, KeyProjects, projects)
}
