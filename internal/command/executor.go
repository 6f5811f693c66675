package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/Brandtweary/cyberorganism/internal/app"
	"github.com/Brandtweary/cyberorganism/internal/display"
	"github.com/Brandtweary/cyberorganism/internal/domain"
)

// Service is the slice of the application service the executor needs.
type Service interface {
	CreateTask(ctx context.Context, content string, container domain.Container) (domain.Task, error)
	AddSubtask(ctx context.Context, parentID, content string) (domain.Task, error)
	EditTask(ctx context.Context, id, content string) (domain.Task, error)
	CompleteTask(ctx context.Context, id string) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) (domain.Task, error)
	MoveTask(ctx context.Context, id string, container domain.Container) (domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
}

// Executor runs parsed commands against the service and keeps the display
// engine and activity log consistent with the result. Every execution ends
// with a recomputed display, so the UI can render the returned task set
// directly.
type Executor struct {
	svc    Service
	engine *display.Engine
	log    *display.ActivityLog
}

// NewExecutor constructs an executor.
func NewExecutor(svc Service, engine *display.Engine, log *display.ActivityLog) *Executor {
	return &Executor{svc: svc, engine: engine, log: log}
}

// Execute runs one command and returns the updated task set. A command that
// fails to resolve its target logs to the activity log and returns the
// unchanged task set; only service and storage failures surface as errors.
func (x *Executor) Execute(ctx context.Context, cmd Command) ([]domain.Task, error) {
	tasks, err := x.svc.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case nil:
		x.engine.Recompute(tasks)
		return tasks, nil
	case Create:
		return x.executeCreate(ctx, c)
	case Complete:
		return x.executeComplete(ctx, c, tasks)
	case Delete:
		return x.executeDelete(ctx, c, tasks)
	case MoveTo:
		return x.executeMove(ctx, c, tasks)
	case Focus:
		return x.executeFocus(c, tasks)
	case Show:
		return x.executeShow(c, tasks)
	case Toggle:
		return x.executeToggle(c, tasks)
	case AddSubtask:
		return x.executeAddSubtask(ctx, c, tasks)
	case Edit:
		return x.executeEdit(ctx, c)
	default:
		x.engine.Recompute(tasks)
		return tasks, nil
	}
}

func (x *Executor) executeCreate(ctx context.Context, c Create) ([]domain.Task, error) {
	task, err := x.svc.CreateTask(ctx, c.Content, x.engine.ActiveContainer())
	if err != nil {
		return nil, err
	}
	x.log.Add(fmt.Sprintf("Created task: %s", task.Content))
	tasks, err := x.refresh(ctx)
	if err != nil {
		return nil, err
	}
	x.engine.FocusTask("", tasks)
	return tasks, nil
}

func (x *Executor) executeComplete(ctx context.Context, c Complete, tasks []domain.Task) ([]domain.Task, error) {
	id, ok := ResolveQuery(x.engine, tasks, c.Query)
	if !ok {
		x.reportMiss(tasks, c.Query)
		return tasks, nil
	}
	neighbor, hasNeighbor := x.engine.NearestTaskAtSameLevel(tasks, id)

	task, err := x.svc.CompleteTask(ctx, id)
	if errors.Is(err, app.ErrAlreadyArchived) {
		x.log.Add(fmt.Sprintf("Task already archived: %s", task.Content))
		x.engine.Recompute(tasks)
		return tasks, nil
	}
	if err != nil {
		return nil, err
	}
	x.log.Add(fmt.Sprintf("Completed task: %s", task.Content))

	tasks, err = x.refresh(ctx)
	if err != nil {
		return nil, err
	}
	x.refocusAfterRemoval(tasks, neighbor, hasNeighbor)
	return tasks, nil
}

func (x *Executor) executeDelete(ctx context.Context, c Delete, tasks []domain.Task) ([]domain.Task, error) {
	id, ok := ResolveQuery(x.engine, tasks, c.Query)
	if !ok {
		x.reportMiss(tasks, c.Query)
		return tasks, nil
	}
	neighbor, hasNeighbor := x.engine.NearestTaskAtSameLevel(tasks, id)

	task, err := x.svc.DeleteTask(ctx, id)
	if err != nil {
		return nil, err
	}
	x.log.Add(fmt.Sprintf("Deleted task: %s", task.Content))

	tasks, err = x.refresh(ctx)
	if err != nil {
		return nil, err
	}
	x.refocusAfterRemoval(tasks, neighbor, hasNeighbor)
	return tasks, nil
}

func (x *Executor) executeMove(ctx context.Context, c MoveTo, tasks []domain.Task) ([]domain.Task, error) {
	id, ok := ResolveQuery(x.engine, tasks, c.Query)
	if !ok {
		x.reportMiss(tasks, c.Query)
		return tasks, nil
	}
	neighbor, hasNeighbor := x.engine.NearestTaskAtSameLevel(tasks, id)

	task, err := x.svc.MoveTask(ctx, id, c.Container)
	if err != nil {
		return nil, err
	}
	x.log.Add(fmt.Sprintf("Moved task to %s: %s", c.Container.DisplayName(), task.Content))

	tasks, err = x.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if c.Container != x.engine.ActiveContainer() {
		x.refocusAfterRemoval(tasks, neighbor, hasNeighbor)
	} else {
		x.engine.FocusTask(id, tasks)
	}
	return tasks, nil
}

func (x *Executor) executeFocus(c Focus, tasks []domain.Task) ([]domain.Task, error) {
	id, ok := ResolveQuery(x.engine, tasks, c.Query)
	if !ok {
		x.reportMiss(tasks, c.Query)
		return tasks, nil
	}
	x.engine.Recompute(tasks)
	if !x.engine.FocusTask(id, tasks) {
		x.log.Add("No matching task found")
	}
	return tasks, nil
}

func (x *Executor) executeShow(c Show, tasks []domain.Task) ([]domain.Task, error) {
	x.engine.SetActiveContainer(c.Container, tasks)
	x.engine.FocusTask("", tasks)
	x.log.Add(fmt.Sprintf("Showing %s tasks", c.Container.DisplayName()))
	return tasks, nil
}

func (x *Executor) executeToggle(c Toggle, tasks []domain.Task) ([]domain.Task, error) {
	id, ok := ResolveQuery(x.engine, tasks, c.Query)
	if !ok {
		x.reportMiss(tasks, c.Query)
		return tasks, nil
	}
	x.engine.ToggleFold(id, tasks)
	if x.engine.IsFolded(id) {
		x.log.Add("Folded subtasks")
	} else {
		x.log.Add("Expanded subtasks")
	}
	// The toggled task stays visible, so keep focus on it.
	x.engine.FocusTask(id, tasks)
	return tasks, nil
}

func (x *Executor) executeAddSubtask(ctx context.Context, c AddSubtask, tasks []domain.Task) ([]domain.Task, error) {
	parentID, ok := ResolveQuery(x.engine, tasks, c.ParentQuery)
	if !ok {
		x.reportMiss(tasks, c.ParentQuery)
		return tasks, nil
	}
	child, err := x.svc.AddSubtask(ctx, parentID, c.Content)
	if err != nil {
		return nil, err
	}
	parent := domain.FindTask(tasks, parentID)
	if parent != nil {
		x.log.Add(fmt.Sprintf("Added subtask to %s: %s", parent.Content, child.Content))
	} else {
		x.log.Add(fmt.Sprintf("Added subtask: %s", child.Content))
	}

	tasks, err = x.refresh(ctx)
	if err != nil {
		return nil, err
	}
	x.engine.FocusTask("", tasks)
	return tasks, nil
}

func (x *Executor) executeEdit(ctx context.Context, c Edit) ([]domain.Task, error) {
	task, err := x.svc.EditTask(ctx, c.TaskID, c.Content)
	if err != nil {
		return nil, err
	}
	x.log.Add(fmt.Sprintf("Updated task: %s", task.Content))

	tasks, err := x.refresh(ctx)
	if err != nil {
		return nil, err
	}
	x.engine.FocusTask("", tasks)
	return tasks, nil
}

// refresh reloads the task set and rebuilds the display.
func (x *Executor) refresh(ctx context.Context) ([]domain.Task, error) {
	tasks, err := x.svc.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	x.engine.Recompute(tasks)
	return tasks, nil
}

// refocusAfterRemoval moves focus to the removed task's neighbor, or back to
// the input row when it had none.
func (x *Executor) refocusAfterRemoval(tasks []domain.Task, neighbor string, hasNeighbor bool) {
	if hasNeighbor && x.engine.FocusTask(neighbor, tasks) {
		return
	}
	x.engine.FocusTask("", tasks)
}

// reportMiss logs a failed task lookup, with a fuzzy-match hint when one of
// the visible tasks is close to the query.
func (x *Executor) reportMiss(tasks []domain.Task, query string) {
	x.engine.Recompute(tasks)
	if suggestion, ok := SuggestClosest(x.engine, tasks, query); ok {
		x.log.Add(fmt.Sprintf("No matching task found. Did you mean %q?", suggestion))
		return
	}
	x.log.Add("No matching task found")
}
