package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTaskValidate(t *testing.T) {
	task := Task{ID: "t1", Title: "Write report", Status: StatusPending, Priority: PriorityHigh}
	assert.NoError(t, task.Validate())

	task.Status = TaskStatus("archived")
	err := task.Validate()
	assert.True(t, errors.Is(err, ErrInvalidStatus), "got %v", err)

	task.Status = StatusCompleted
	task.Priority = Priority("urgent")
	err = task.Validate()
	assert.True(t, errors.Is(err, ErrInvalidPriority), "got %v", err)

	task.Priority = PriorityNone
	task.ParentID = strPtr("t1")
	assert.Error(t, task.Validate())

	assert.Error(t, Task{ID: "x", Status: StatusPending}.Validate())
}

func TestTaskIndex(t *testing.T) {
	tasks := []Task{
		{ID: "root", Title: "Launch", Status: StatusPending},
		{ID: "a", Title: "Design", Status: StatusCompleted, ParentID: strPtr("root")},
		{ID: "b", Title: "Build", Status: StatusPending, ParentID: strPtr("root")},
		{ID: "b1", Title: "Backend", Status: StatusPending, ParentID: strPtr("b")},
		{ID: "orphan", Title: "Lost", Status: StatusPending, ParentID: strPtr("missing")},
	}
	idx := NewTaskIndex(tasks)

	assert.Len(t, idx.Children("root"), 2)
	assert.True(t, idx.HasChildren("b"))
	assert.False(t, idx.HasChildren("a"))
	assert.InDelta(t, 0.5, idx.CompletedRatio("root"), 0.0001)
	assert.Equal(t, 0.0, idx.CompletedRatio("a"))

	assert.Equal(t, []string{"Launch", "Build"}, idx.Path("b1"))
	assert.Empty(t, idx.Path("root"))
	assert.Empty(t, idx.Path("orphan"))
	assert.Nil(t, idx.Path("nope"))

	assert.ElementsMatch(t, []string{"a", "b", "b1"}, idx.Descendants("root"))
}

func TestTaskIndexPathStopsOnCycle(t *testing.T) {
	tasks := []Task{
		{ID: "x", Title: "X", ParentID: strPtr("y")},
		{ID: "y", Title: "Y", ParentID: strPtr("x")},
	}
	idx := NewTaskIndex(tasks)
	assert.Equal(t, []string{"Y"}, idx.Path("x"))
}

func TestTaskIndexLabel(t *testing.T) {
	idx := NewTaskIndex([]Task{
		{ID: "root", Title: "Launch"},
		{ID: "b", Title: "Build", ParentID: strPtr("root")},
	})
	assert.Equal(t, "Launch › Build", idx.Label("b"))
	assert.Equal(t, "Launch", idx.Label("root"))
	assert.Empty(t, idx.Label("nope"))
	assert.Equal(t, "Solo", JoinPath(nil, "Solo"))
}

func TestTaskIndexResolve(t *testing.T) {
	idx := NewTaskIndex([]Task{
		{ID: "abcd1111", Title: "One"},
		{ID: "abcd2222", Title: "Two"},
		{ID: "ef12", Title: "Short"},
	})

	got, err := idx.Resolve("ef12")
	require.NoError(t, err)
	assert.Equal(t, "Short", got.Title)

	got, err = idx.Resolve(" abcd1 ")
	require.NoError(t, err)
	assert.Equal(t, "One", got.Title)

	_, err = idx.Resolve("abcd")
	assert.ErrorIs(t, err, ErrAmbiguousRef)

	_, err = idx.Resolve("abc")
	assert.ErrorIs(t, err, ErrNoTaskMatch, "prefix shorter than MinRefLen")

	_, err = idx.Resolve("zzzz")
	assert.ErrorIs(t, err, ErrNoTaskMatch)
}
