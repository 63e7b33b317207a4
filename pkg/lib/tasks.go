package lib

import (
	"context"
	"fmt"

	"github.com/slok/glmcp/internal/model"
)

// GetTask returns a task by ID.
//
// Returns [ErrNotFound] if the task does not exist.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	if id == "" {
		return nil, newError(ErrorKindValidation, "task ID is required")
	}

	t, err := c.rt.Tasks.Get(ctx, id)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not get task: %w", err))
	}

	out := fromInternalTask(*t)
	return &out, nil
}

// ListTasks returns the tasks, oldest first.
func (c *Client) ListTasks(ctx context.Context, opts *ListTasksOpts) ([]Task, error) {
	var state *model.TaskState
	if opts != nil && opts.State != nil {
		s, err := model.ParseTaskState(string(*opts.State))
		if err != nil {
			return nil, mapError(err)
		}
		state = &s
	}

	ts, err := c.rt.Tasks.List(ctx, state)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not list tasks: %w", err))
	}

	return fromInternalTaskList(ts), nil
}

// CancelTask cancels a pending or working task and stops its operation if it
// runs in this client.
//
// Returns [ErrNotFound] if the task does not exist, or [ErrNotValid] if the
// task already finished.
func (c *Client) CancelTask(ctx context.Context, id string) (*Task, error) {
	if id == "" {
		return nil, newError(ErrorKindValidation, "task ID is required")
	}

	t, err := c.dispatcher().CancelTask(ctx, id)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not cancel task: %w", err))
	}

	out := fromInternalTask(*t)
	return &out, nil
}
