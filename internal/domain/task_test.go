package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewTaskDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{ID: "t1", Content: "Buy groceries"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.Container != ContainerTaskpad {
		t.Fatalf("unexpected container %q", task.Container)
	}
	if task.Status != StatusTodo {
		t.Fatalf("unexpected status %q", task.Status)
	}
	if !task.IsTopLevel() {
		t.Fatal("expected top-level task")
	}
}

func TestNewTaskRequiresID(t *testing.T) {
	_, err := NewTask(TaskInput{Content: "no id"}, time.Now())
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestCompleteArchivesTask(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task, _ := NewTask(TaskInput{ID: "t1", Content: "Call dentist"}, now)
	task.Complete(now.Add(time.Hour))
	if task.Status != StatusDone {
		t.Fatalf("unexpected status %q", task.Status)
	}
	if task.Container != ContainerArchived {
		t.Fatalf("unexpected container %q", task.Container)
	}
}

func TestMoveToRejectsUnknownContainer(t *testing.T) {
	task, _ := NewTask(TaskInput{ID: "t1"}, time.Now())
	if err := task.MoveTo(Container("junk"), time.Now()); !errors.Is(err, ErrInvalidContainer) {
		t.Fatalf("expected ErrInvalidContainer, got %v", err)
	}
}

func TestAddAndRemoveChild(t *testing.T) {
	now := time.Now()
	task, _ := NewTask(TaskInput{ID: "p1"}, now)
	task.AddChild("c1", now)
	task.AddChild("c2", now)
	task.AddChild("c1", now) // duplicate ignored
	if len(task.ChildIDs) != 2 {
		t.Fatalf("unexpected child ids %v", task.ChildIDs)
	}
	task.RemoveChild("c1", now)
	if len(task.ChildIDs) != 1 || task.ChildIDs[0] != "c2" {
		t.Fatalf("unexpected child ids %v", task.ChildIDs)
	}
	task.RemoveChild("missing", now)
	if len(task.ChildIDs) != 1 {
		t.Fatalf("unexpected child ids %v", task.ChildIDs)
	}
}

func TestParseContainer(t *testing.T) {
	if c, ok := ParseContainer(" Backburner "); !ok || c != ContainerBackburner {
		t.Fatalf("ParseContainer = %q, %t", c, ok)
	}
	if _, ok := ParseContainer("attic"); ok {
		t.Fatal("expected unknown container to fail")
	}
}

func TestFindTaskByContentExactOnly(t *testing.T) {
	now := time.Now()
	a, _ := NewTask(TaskInput{ID: "a", Content: "Buy groceries"}, now)
	b, _ := NewTask(TaskInput{ID: "b", Content: "Write report"}, now)
	tasks := []Task{a, b}

	if idx := FindTaskByContent(tasks, "Buy groceries", ContainerTaskpad); idx != 0 {
		t.Fatalf("expected index 0, got %d", idx)
	}
	if idx := FindTaskByContent(tasks, "groceries", ContainerTaskpad); idx != -1 {
		t.Fatalf("partial content must not match, got %d", idx)
	}
	if idx := FindTaskByContent(tasks, "Buy groceries", ContainerShelved); idx != -1 {
		t.Fatalf("wrong container must not match, got %d", idx)
	}
}

func TestFindNearestSibling(t *testing.T) {
	now := time.Now()
	parent, _ := NewTask(TaskInput{ID: "p"}, now)
	c1, _ := NewTask(TaskInput{ID: "c1", ParentID: "p"}, now)
	c2, _ := NewTask(TaskInput{ID: "c2", ParentID: "p"}, now)
	c3, _ := NewTask(TaskInput{ID: "c3", ParentID: "p"}, now)
	parent.AddChild("c1", now)
	parent.AddChild("c2", now)
	parent.AddChild("c3", now)
	tasks := []Task{parent, c1, c2, c3}

	if id, ok := FindNearestSibling(tasks, "c2"); !ok || id != "c1" {
		t.Fatalf("expected previous sibling c1, got %q, %t", id, ok)
	}
	if id, ok := FindNearestSibling(tasks, "c1"); !ok || id != "c2" {
		t.Fatalf("expected next sibling c2, got %q, %t", id, ok)
	}
	if _, ok := FindNearestSibling(tasks, "p"); ok {
		t.Fatal("top-level task has no siblings via parent list")
	}
}
