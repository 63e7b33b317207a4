package storage

import (
	"context"

	"github.com/slok/glmcp/internal/model"
)

// ListTasksOpts are the options to filter listed tasks.
type ListTasksOpts struct {
	// State filters by task state, nil means all.
	State *model.TaskState
	// OperationName filters by operation, empty means all.
	OperationName string
	// InvocationID filters by the invocation that created the task, empty means all.
	InvocationID string
}

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name TaskRepository

// TaskRepository is the interface for task persistence.
type TaskRepository interface {
	CreateTask(ctx context.Context, t model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	// ListTasks returns tasks ordered by creation, oldest first.
	ListTasks(ctx context.Context, opts ListTasksOpts) ([]model.Task, error)
	// UpdateTask stores the task only if the stored task is still in the expected state,
	// otherwise it fails with model.ErrInvalidTransition.
	UpdateTask(ctx context.Context, t model.Task, expected model.TaskState) error
}
