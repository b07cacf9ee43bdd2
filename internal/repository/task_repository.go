package repository

import (
	"context"

	"taskplanner/internal/model"
)

const (
	KeyTasks          = "tasks"
	KeyCategories     = "categories"
	KeyProjects       = "projects"
	KeyCalendarEvents = "calendar_events"
	timeBlocksPrefix  = "timeBlocks_"
)

// TimeBlocksKey is the storage key for one day's time blocks.
func TimeBlocksKey(date string) string {
	return timeBlocksPrefix + date
}

// loadList reads a JSON array; a missing key is an empty collection.
func loadList[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	var out []T
	if _, err := kv.Load(ctx, key, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// TaskRepository stores the whole task collection under one key. Writers
// replace the collection; nothing is patched in place.
type TaskRepository struct {
	kv KV
}

func NewTaskRepository(kv KV) *TaskRepository {
	return &TaskRepository{kv: kv}
}

func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	return loadList[model.Task](ctx, r.kv, KeyTasks)
}

func (r *TaskRepository) ReplaceAll(ctx context.Context, tasks []model.Task) error {
	return r.kv.Save(ctx, KeyTasks, tasks)
}
