package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Brandtweary/cyberorganism/internal/app"
	"github.com/Brandtweary/cyberorganism/internal/domain"
)

func testTask(id, content string, created time.Time) domain.Task {
	return domain.Task{
		ID:        id,
		Content:   content,
		Container: domain.ContainerTaskpad,
		Status:    domain.StatusTodo,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestRepository_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cyberorganism.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task := testTask("t1", "write report", now)
	task.ChildIDs = []string{"t2"}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	loaded, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if loaded.Content != "write report" {
		t.Fatalf("unexpected content %q", loaded.Content)
	}
	if len(loaded.ChildIDs) != 1 || loaded.ChildIDs[0] != "t2" {
		t.Fatalf("unexpected children %v", loaded.ChildIDs)
	}
	if !loaded.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", loaded.CreatedAt, now)
	}

	loaded.Content = "write the report"
	loaded.Container = domain.ContainerArchived
	loaded.Status = domain.StatusDone
	if err := repo.UpdateTask(ctx, loaded); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	reloaded, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() after update error = %v", err)
	}
	if reloaded.Container != domain.ContainerArchived || reloaded.Status != domain.StatusDone {
		t.Fatalf("update not persisted: %+v", reloaded)
	}

	if err := repo.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := repo.GetTask(ctx, "t1"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("GetTask() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRepository_ListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "order.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	// Ids sort differently from insertion order on purpose.
	for i, id := range []string{"zz", "aa", "mm"} {
		if err := repo.CreateTask(ctx, testTask(id, id, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("CreateTask(%s) error = %v", id, err)
		}
	}

	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	got := make([]string, len(tasks))
	for i, task := range tasks {
		got[i] = task.ID
	}
	want := []string{"zz", "aa", "mm"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRepository_UpdateMissingTask(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	if err := repo.UpdateTask(ctx, testTask("ghost", "nope", now)); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("UpdateTask() error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTask(ctx, "ghost"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("DeleteTask() error = %v, want ErrNotFound", err)
	}
}
