// Package task manages the lifecycle of long-running operation invocations.
//
// A task moves through pending, working and one terminal state. Transitions of the
// same task are serialized, and the repository update is conditional on the state
// the transition started from, so concurrent complete, fail and cancel calls have
// exactly one winner.
package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/storage"
)

// ManagerConfig is the configuration for the task manager.
type ManagerConfig struct {
	Repository storage.TaskRepository
	Logger     log.Logger
	// Now returns the current time, defaults to UTC wall clock.
	Now func() time.Time
	// NewID returns new task IDs, defaults to ULIDs.
	NewID func() string
}

func (c *ManagerConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "task.Manager"})
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
	if c.NewID == nil {
		c.NewID = func() string { return ulid.Make().String() }
	}
	return nil
}

// Manager handles task state transitions.
type Manager struct {
	repo   storage.TaskRepository
	logger log.Logger
	now    func() time.Time
	newID  func() string
	locks  *keyMutex
}

// NewManager creates a new task manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		now:    cfg.Now,
		newID:  cfg.NewID,
		locks:  newKeyMutex(),
	}, nil
}

// Create creates a new pending task for an operation invocation.
func (m *Manager) Create(ctx context.Context, operationName, invocationID string) (*model.Task, error) {
	if operationName == "" {
		return nil, fmt.Errorf("operation name is required: %w", model.ErrNotValid)
	}

	now := m.now()
	t := model.Task{
		ID:            m.newID(),
		OperationName: operationName,
		InvocationID:  invocationID,
		State:         model.TaskStatePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.repo.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("could not create task: %w", err)
	}

	m.logger.WithCtxValues(ctx).Debugf("Task %s created for operation %s", t.ID, operationName)
	return &t, nil
}

// Start moves a pending task to working.
func (m *Manager) Start(ctx context.Context, id string) (*model.Task, error) {
	return m.transition(ctx, id, model.TaskStateWorking, nil)
}

// Complete moves a working task to completed storing its result. On a cancelled
// task it does nothing and returns the cancelled task.
func (m *Manager) Complete(ctx context.Context, id string, result any) (*model.Task, error) {
	return m.transition(ctx, id, model.TaskStateCompleted, func(t *model.Task) {
		t.Result = result
	})
}

// Fail moves a working task to failed storing its error. On a cancelled task
// it does nothing and returns the cancelled task.
func (m *Manager) Fail(ctx context.Context, id string, taskErr model.StructuredError) (*model.Task, error) {
	return m.transition(ctx, id, model.TaskStateFailed, func(t *model.Task) {
		t.Error = &taskErr
	})
}

// Cancel moves a pending or working task to cancelled.
func (m *Manager) Cancel(ctx context.Context, id string) (*model.Task, error) {
	return m.transition(ctx, id, model.TaskStateCancelled, nil)
}

// Get returns a task.
func (m *Manager) Get(ctx context.Context, id string) (*model.Task, error) {
	return m.repo.GetTask(ctx, id)
}

// List returns the tasks, optionally filtered by state.
func (m *Manager) List(ctx context.Context, state *model.TaskState) ([]model.Task, error) {
	return m.repo.ListTasks(ctx, storage.ListTasksOpts{State: state})
}

func (m *Manager) transition(ctx context.Context, id string, to model.TaskState, mutate func(t *model.Task)) (*model.Task, error) {
	m.locks.Lock(id)
	defer m.locks.Unlock(id)

	logger := m.logger.WithCtxValues(ctx).WithValues(log.Kv{"task-id": id})

	t, err := m.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if isLateOutcome(t.State, to) {
		logger.Debugf("Ignoring %s on cancelled task", to)
		return t, nil
	}

	from := t.State
	if err := model.ValidateTaskTransition(from, to); err != nil {
		return nil, err
	}

	t.State = to
	t.UpdatedAt = m.now()
	if mutate != nil {
		mutate(t)
	}

	err = m.repo.UpdateTask(ctx, *t, from)
	if err != nil {
		// Another process may have cancelled it after we read it.
		if errors.Is(err, model.ErrInvalidTransition) {
			current, gerr := m.repo.GetTask(ctx, id)
			if gerr == nil && isLateOutcome(current.State, to) {
				logger.Debugf("Ignoring %s on cancelled task", to)
				return current, nil
			}
		}
		return nil, fmt.Errorf("could not update task: %w", err)
	}

	logger.Debugf("Task %s -> %s", from, to)
	return t, nil
}

func isLateOutcome(current, to model.TaskState) bool {
	return current == model.TaskStateCancelled && (to == model.TaskStateCompleted || to == model.TaskStateFailed)
}
