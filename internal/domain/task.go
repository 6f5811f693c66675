package domain

import (
	"slices"
	"strings"
	"time"
)

// Task is one entry in the hierarchical task collection. Child relationships
// are stored as identifier lists rather than owning references, so deleting
// or moving a task never requires more than editing a list of ids.
type Task struct {
	ID        string
	Content   string
	Container Container
	Status    Status
	ParentID  string
	ChildIDs  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskInput collects the fields needed to construct a task.
type TaskInput struct {
	ID       string
	Content  string
	ParentID string
}

// NewTask constructs a task in the taskpad with todo status.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ParentID = strings.TrimSpace(in.ParentID)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}

	return Task{
		ID:        in.ID,
		Content:   in.Content,
		Container: ContainerTaskpad,
		Status:    StatusTodo,
		ParentID:  in.ParentID,
		ChildIDs:  nil,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// IsTopLevel reports whether the task has no parent.
func (t *Task) IsTopLevel() bool {
	return t.ParentID == ""
}

// Complete marks the task done and moves it to the archived container.
func (t *Task) Complete(now time.Time) {
	t.Status = StatusDone
	t.Container = ContainerArchived
	t.UpdatedAt = now.UTC()
}

// UpdateContent replaces the display text.
func (t *Task) UpdateContent(content string, now time.Time) {
	t.Content = content
	t.UpdatedAt = now.UTC()
}

// MoveTo places the task in another container.
func (t *Task) MoveTo(container Container, now time.Time) error {
	if !container.Valid() {
		return ErrInvalidContainer
	}
	t.Container = container
	t.UpdatedAt = now.UTC()
	return nil
}

// AddChild appends a subtask id to the ordered child list.
func (t *Task) AddChild(childID string, now time.Time) {
	childID = strings.TrimSpace(childID)
	if childID == "" || slices.Contains(t.ChildIDs, childID) {
		return
	}
	t.ChildIDs = append(t.ChildIDs, childID)
	t.UpdatedAt = now.UTC()
}

// RemoveChild drops a subtask id from the child list.
func (t *Task) RemoveChild(childID string, now time.Time) {
	idx := slices.Index(t.ChildIDs, childID)
	if idx < 0 {
		return
	}
	t.ChildIDs = slices.Delete(t.ChildIDs, idx, idx+1)
	t.UpdatedAt = now.UTC()
}

// FindTask returns a pointer into tasks for the given id, or nil.
func FindTask(tasks []Task, id string) *Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// FindTaskIndex returns the slice index for the given id, or -1.
func FindTaskIndex(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTaskByContent returns the index of the task whose content exactly
// matches within the given container, or -1. Partial matches never count.
func FindTaskByContent(tasks []Task, content string, container Container) int {
	for i := range tasks {
		if tasks[i].Container == container && tasks[i].Content == content {
			return i
		}
	}
	return -1
}

// FindNearestSibling returns the id of the sibling closest to the task in its
// parent's child list, preferring the previous sibling over the next.
func FindNearestSibling(tasks []Task, taskID string) (string, bool) {
	task := FindTask(tasks, taskID)
	if task == nil || task.ParentID == "" {
		return "", false
	}
	parent := FindTask(tasks, task.ParentID)
	if parent == nil {
		return "", false
	}
	pos := slices.Index(parent.ChildIDs, taskID)
	if pos < 0 {
		return "", false
	}
	for prev := pos - 1; prev >= 0; prev-- {
		if FindTask(tasks, parent.ChildIDs[prev]) != nil {
			return parent.ChildIDs[prev], true
		}
	}
	for next := pos + 1; next < len(parent.ChildIDs); next++ {
		if FindTask(tasks, parent.ChildIDs[next]) != nil {
			return parent.ChildIDs[next], true
		}
	}
	return "", false
}
