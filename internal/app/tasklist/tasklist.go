package tasklist

import (
	"context"
	"fmt"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/storage"
)

// ServiceConfig is the configuration for the task list service.
type ServiceConfig struct {
	Repository storage.TaskRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "tasklist.Service"})

	return nil
}

// Service lists tasks with optional filtering.
type Service struct {
	repo   storage.TaskRepository
	logger log.Logger
}

// NewService creates a new task list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// StateFilter only shows tasks in this state.
	StateFilter *model.TaskState
	// OperationFilter only shows tasks of this operation.
	OperationFilter string
	// Last only shows the newest N tasks, 0 means all.
	Last int
}

// Run lists tasks oldest first, optionally filtered.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Task, error) {
	if req.Last < 0 {
		return nil, fmt.Errorf("last must be positive: %w", model.ErrNotValid)
	}
	s.logger.Debugf("listing tasks with state filter %v and operation filter %q", req.StateFilter, req.OperationFilter)

	tasks, err := s.repo.ListTasks(ctx, storage.ListTasksOpts{
		State:         req.StateFilter,
		OperationName: req.OperationFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	if req.Last > 0 && len(tasks) > req.Last {
		tasks = tasks[len(tasks)-req.Last:]
	}

	s.logger.Debugf("found %d tasks", len(tasks))
	return tasks, nil
}
