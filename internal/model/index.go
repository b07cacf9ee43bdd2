package model

import (
	"errors"
	"fmt"
	"strings"
)

// MinRefLen is the shortest id prefix accepted as a task reference.
const MinRefLen = 4

var (
	ErrNoTaskMatch  = errors.New("model: no task matches")
	ErrAmbiguousRef = errors.New("model: reference matches several tasks")
)

const pathSep = " › "

// TaskIndex is an id lookup over one snapshot of the task set. Build it once per
// pass instead of scanning the slice for every parent hop.
type TaskIndex struct {
	order    []Task
	byID     map[string]Task
	children map[string][]Task
}

func NewTaskIndex(tasks []Task) *TaskIndex {
	idx := &TaskIndex{
		order:    tasks,
		byID:     make(map[string]Task, len(tasks)),
		children: make(map[string][]Task),
	}
	for _, t := range tasks {
		idx.byID[t.ID] = t
		if t.IsSubtask() {
			idx.children[*t.ParentID] = append(idx.children[*t.ParentID], t)
		}
	}
	return idx
}

func (idx *TaskIndex) Get(id string) (Task, bool) {
	t, ok := idx.byID[id]
	return t, ok
}

// Children returns direct subtasks in task-set order.
func (idx *TaskIndex) Children(id string) []Task {
	return idx.children[id]
}

func (idx *TaskIndex) HasChildren(id string) bool {
	return len(idx.children[id]) > 0
}

// CompletedRatio is the fraction of direct subtasks that are completed, 0 when
// the task has none.
func (idx *TaskIndex) CompletedRatio(id string) float64 {
	kids := idx.children[id]
	if len(kids) == 0 {
		return 0
	}
	done := 0
	for _, k := range kids {
		if k.IsCompleted() {
			done++
		}
	}
	return float64(done) / float64(len(kids))
}

// Path returns the titles of the ancestors of id, root first. A missing parent
// or a cycle ends the walk.
func (idx *TaskIndex) Path(id string) []string {
	t, ok := idx.byID[id]
	if !ok {
		return nil
	}
	var path []string
	seen := map[string]bool{id: true}
	for t.IsSubtask() {
		parent, ok := idx.byID[*t.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		path = append([]string{parent.Title}, path...)
		t = parent
	}
	return path
}

// Descendants returns the ids of every task below id.
func (idx *TaskIndex) Descendants(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, k := range idx.children[cur] {
			if seen[k.ID] {
				continue
			}
			seen[k.ID] = true
			out = append(out, k.ID)
			queue = append(queue, k.ID)
		}
	}
	return out
}

// Label prefixes the title of id with its ancestors, e.g. "Launch › Build".
func (idx *TaskIndex) Label(id string) string {
	t, ok := idx.byID[id]
	if !ok {
		return ""
	}
	return JoinPath(idx.Path(id), t.Title)
}

// JoinPath renders ancestor titles followed by title.
func JoinPath(path []string, title string) string {
	if len(path) == 0 {
		return title
	}
	return strings.Join(path, pathSep) + pathSep + title
}

// Resolve finds a task by full id, or by an id prefix of at least MinRefLen
// characters that matches exactly one task.
func (idx *TaskIndex) Resolve(ref string) (Task, error) {
	ref = strings.TrimSpace(ref)
	if t, ok := idx.byID[ref]; ok {
		return t, nil
	}
	var matches []Task
	if len(ref) >= MinRefLen {
		for _, t := range idx.order {
			if strings.HasPrefix(t.ID, ref) {
				matches = append(matches, t)
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Task{}, fmt.Errorf("%w %q", ErrNoTaskMatch, ref)
	default:
		return Task{}, fmt.Errorf("%w: %q matches %d, use more characters", ErrAmbiguousRef, ref, len(matches))
	}
}
