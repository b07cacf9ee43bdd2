package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskplanner/internal/model"
	"taskplanner/internal/repository"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

type fixture struct {
	kv       *repository.MemoryStore
	clock    *fakeClock
	tasks    *TaskService
	cats     *CategoryService
	catRepo  *repository.CategoryRepository
	projRepo *repository.ProjectRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	kv := repository.NewMemoryStore()
	clock := newClock()
	tasks := NewTaskService(repository.NewTaskRepository(kv), clock.Now)
	catRepo := repository.NewCategoryRepository(kv)
	projRepo := repository.NewProjectRepository(kv)
	return &fixture{
		kv:       kv,
		clock:    clock,
		tasks:    tasks,
		cats:     NewCategoryService(catRepo, projRepo, tasks),
		catRepo:  catRepo,
		projRepo: projRepo,
	}
}

func (f *fixture) create(t *testing.T, in TaskInput) *model.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), in)
	require.NoError(t, err)
	return task
}

func TestCreateTaskValidates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.tasks.CreateTask(ctx, TaskInput{Title: "   "})
	assert.Error(t, err)

	_, err = f.tasks.CreateTask(ctx, TaskInput{Title: "x", DueDate: "someday"})
	assert.ErrorIs(t, err, ErrInvalidDueDate)

	_, err = f.tasks.CreateTask(ctx, TaskInput{Title: "x", DueDate: "2025-06-01", DueTime: "25:99"})
	assert.ErrorIs(t, err, ErrInvalidDueTime)

	_, err = f.tasks.CreateTask(ctx, TaskInput{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, model.ErrInvalidPriority)

	missing := "ghost"
	_, err = f.tasks.CreateTask(ctx, TaskInput{Title: "x", ParentID: &missing})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	task := f.create(t, TaskInput{Title: "  Write report ", DueDate: "2025-06-02", Priority: model.PriorityHigh})
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Equal(t, f.clock.Now(), task.CreatedAt)

	all, err := f.tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, task.ID, all[0].ID)
}

func TestOnChangeFiresAfterWrites(t *testing.T) {
	f := setup(t)
	calls := 0
	f.tasks.OnChange(func(context.Context) { calls++ })

	task := f.create(t, TaskInput{Title: "a"})
	_, err := f.tasks.ToggleComplete(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, err = f.tasks.ToggleComplete(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, 2, calls)
}

func TestDueBetweenIsHalfOpen(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := f.clock.Now()
	f.create(t, TaskInput{Title: "today", DueDate: "2025-06-01", DueTime: "08:00"})
	f.create(t, TaskInput{Title: "last day", DueDate: "2025-06-07"})
	f.create(t, TaskInput{Title: "next week", DueDate: "2025-06-08"})
	f.create(t, TaskInput{Title: "undated"})
	done := f.create(t, TaskInput{Title: "done", DueDate: "2025-06-03"})
	_, err := f.tasks.CompleteTask(ctx, done.ID)
	require.NoError(t, err)

	week, err := f.tasks.DueBetween(ctx, start, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	var titles []string
	for _, task := range week {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"today", "last day"}, titles)
}

func TestToggleComplete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := f.create(t, TaskInput{Title: "a"})

	done, err := f.tasks.ToggleComplete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted())
	require.NotNil(t, done.CompletedAt)

	again, err := f.tasks.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(*again.CompletedAt))

	undone, err := f.tasks.ToggleComplete(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, undone.IsCompleted())
	assert.Nil(t, undone.CompletedAt)
}

func TestDeleteTaskRemovesSubtree(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	root := f.create(t, TaskInput{Title: "root"})
	child := f.create(t, TaskInput{Title: "child", ParentID: &root.ID})
	f.create(t, TaskInput{Title: "grandchild", ParentID: &child.ID})
	other := f.create(t, TaskInput{Title: "other"})

	require.NoError(t, f.tasks.DeleteTask(ctx, root.ID))
	all, err := f.tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, other.ID, all[0].ID)

	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, root.ID), ErrTaskNotFound)
}

func TestAddSubtasksInheritsParentContext(t *testing.T) {
	f := setup(t)
	project := "p1"
	parent := f.create(t, TaskInput{Title: "Launch", ProjectID: &project, CategoryIDs: []string{"c1"}})

	subs, err := f.tasks.AddSubtasks(context.Background(), parent.ID, []string{"Build", " ", "Ship"})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	for _, s := range subs {
		require.NotNil(t, s.ParentID)
		assert.Equal(t, parent.ID, *s.ParentID)
		assert.Equal(t, &project, s.ProjectID)
		assert.Equal(t, []string{"c1"}, s.CategoryIDs)
	}

	_, err = f.tasks.AddSubtasks(context.Background(), "ghost", []string{"x"})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestFocusTimer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := f.create(t, TaskInput{Title: "focus"})

	_, err := f.tasks.StopTimer(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTimerNotRunning)

	_, err = f.tasks.StartTimer(ctx, task.ID)
	require.NoError(t, err)
	_, err = f.tasks.StartTimer(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTimerRunning)

	f.clock.Advance(20 * time.Second)
	stopped, err := f.tasks.StopTimer(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stopped.ActualMinutes)
	assert.Equal(t, 1, *stopped.ActualMinutes)

	_, err = f.tasks.StartTimer(ctx, task.ID)
	require.NoError(t, err)
	f.clock.Advance(61 * time.Second)
	stopped, err = f.tasks.StopTimer(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *stopped.ActualMinutes)
	assert.NotNil(t, stopped.TimerCompletedAt)
}

func TestUpdateTask(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := f.create(t, TaskInput{Title: "a"})

	task.DueDate = "2025-06-03"
	task.DueTime = "14:00"
	require.NoError(t, f.tasks.UpdateTask(ctx, *task))

	got, err := f.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "14:00", got.DueTime)

	task.DueDate = "bad"
	assert.ErrorIs(t, f.tasks.UpdateTask(ctx, *task), ErrInvalidDueDate)

	ghost := model.Task{ID: "ghost", Title: "x", Status: model.StatusPending}
	assert.ErrorIs(t, f.tasks.UpdateTask(ctx, ghost), ErrTaskNotFound)
}

func TestStoreFailureSurfaces(t *testing.T) {
	f := setup(t)
	f.kv.Err = assert.AnError
	_, err := f.tasks.CreateTask(context.Background(), TaskInput{Title: "a"})
	assert.ErrorIs(t, err, assert.AnError)
}
