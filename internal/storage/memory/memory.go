package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.TaskRepository.
type Repository struct {
	tasks  map[string]model.Task
	mu     sync.RWMutex
	logger log.Logger
}

var _ storage.TaskRepository = &Repository{}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		tasks:  make(map[string]model.Task),
		logger: cfg.Logger,
	}, nil
}

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrAlreadyExists)
	}

	r.tasks[t.ID] = copyTask(t)
	r.logger.Debugf("Created task in repository: %s", t.ID)

	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	tCopy := copyTask(t)
	return &tCopy, nil
}

// ListTasks returns the tasks, oldest first.
func (r *Repository) ListTasks(ctx context.Context, opts storage.ListTasksOpts) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if opts.State != nil && t.State != *opts.State {
			continue
		}
		if opts.OperationName != "" && t.OperationName != opts.OperationName {
			continue
		}
		if opts.InvocationID != "" && t.InvocationID != opts.InvocationID {
			continue
		}
		tasks = append(tasks, copyTask(t))
	}

	slices.SortFunc(tasks, func(a, b model.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return tasks, nil
}

// UpdateTask updates an existing task if it is still in the expected state.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task, expected model.TaskState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[t.ID]
	if !ok {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}
	if stored.State != expected {
		return fmt.Errorf("task %s is %s, expected %s: %w", t.ID, stored.State, expected, model.ErrInvalidTransition)
	}

	r.tasks[t.ID] = copyTask(t)
	r.logger.Debugf("Updated task in repository: %s (%s -> %s)", t.ID, expected, t.State)

	return nil
}

func copyTask(t model.Task) model.Task {
	if t.Error != nil {
		e := *t.Error
		t.Error = &e
	}
	return t
}
