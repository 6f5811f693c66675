package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Brandtweary/cyberorganism/internal/domain"
)

// IDGenerator returns unique identifiers for new tasks.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service implements the task operations behind both the TUI and the API
// surfaces. All mutations go through the repository so every frontend sees
// the same task set.
type Service struct {
	repo  Repository
	idGen IDGenerator
	clock Clock
}

// NewService constructs a new service over the given repository.
func NewService(repo Repository, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: repo, idGen: idGen, clock: clock}
}

// CreateTask creates a new top-level task in the given container.
func (s *Service) CreateTask(ctx context.Context, content string, container domain.Container) (domain.Task, error) {
	task, err := domain.NewTask(domain.TaskInput{
		ID:      s.idGen(),
		Content: content,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if container != "" {
		if err := task.MoveTo(container, s.clock()); err != nil {
			return domain.Task{}, err
		}
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// AddSubtask creates a new task as a child of parentID. The child lives in
// the parent's container and is appended to the parent's child list.
func (s *Service) AddSubtask(ctx context.Context, parentID, content string) (domain.Task, error) {
	parent, err := s.repo.GetTask(ctx, parentID)
	if err != nil {
		return domain.Task{}, err
	}

	now := s.clock()
	child, err := domain.NewTask(domain.TaskInput{
		ID:       s.idGen(),
		Content:  content,
		ParentID: parent.ID,
	}, now)
	if err != nil {
		return domain.Task{}, err
	}
	child.Container = parent.Container

	if err := s.repo.CreateTask(ctx, child); err != nil {
		return domain.Task{}, fmt.Errorf("create subtask: %w", err)
	}
	parent.AddChild(child.ID, now)
	if err := s.repo.UpdateTask(ctx, parent); err != nil {
		return domain.Task{}, fmt.Errorf("attach subtask: %w", err)
	}
	return child, nil
}

// EditTask replaces a task's content.
func (s *Service) EditTask(ctx context.Context, id, content string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	task.UpdateContent(content, s.clock())
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("edit task: %w", err)
	}
	return task, nil
}

// CompleteTask marks a task done and moves it to the archived container.
// Completing an already archived task returns ErrAlreadyArchived so callers
// can report it without treating it as a failure.
func (s *Service) CompleteTask(ctx context.Context, id string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if task.Container == domain.ContainerArchived {
		return task, ErrAlreadyArchived
	}
	task.Complete(s.clock())
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("complete task: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task. The task is detached from its parent's child
// list; its own children are left in place and simply stop resolving, so
// they disappear from the display without cascading deletes.
func (s *Service) DeleteTask(ctx context.Context, id string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if task.ParentID != "" {
		parent, err := s.repo.GetTask(ctx, task.ParentID)
		if err == nil {
			parent.RemoveChild(task.ID, s.clock())
			if err := s.repo.UpdateTask(ctx, parent); err != nil {
				return domain.Task{}, fmt.Errorf("detach task: %w", err)
			}
		} else if !errors.Is(err, ErrNotFound) {
			return domain.Task{}, err
		}
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return domain.Task{}, fmt.Errorf("delete task: %w", err)
	}
	return task, nil
}

// MoveTask moves a task to another container.
func (s *Service) MoveTask(ctx context.Context, id string, container domain.Container) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.MoveTo(container, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("move task: %w", err)
	}
	return task, nil
}

// GetTask returns a single task by id.
func (s *Service) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// ListTasks returns every task in insertion order.
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx)
}
