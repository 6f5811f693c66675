package app

import (
	"context"

	"github.com/Brandtweary/cyberorganism/internal/domain"
)

// Repository persists tasks and returns them in insertion order, which is
// the order the display layer linearizes from.
type Repository interface {
	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context) ([]domain.Task, error)
	DeleteTask(context.Context, string) error
}
