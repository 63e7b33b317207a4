package taskstatus

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/storage"
)

// ServiceConfig is the configuration for the task status service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "taskstatus.Service"})

	return nil
}

// Service retrieves a task.
type Service struct {
	repo   storage.TaskRepository
	logger log.Logger
}

// NewService creates a new task status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	// ID is the task ID or the ID of the invocation that created it.
	ID string
}

// Run retrieves a task by its ID, falling back to the invocation ID.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("id is required: %w", model.ErrNotValid)
	}
	s.logger.Debugf("getting task: %s", req.ID)

	t, err := s.repo.GetTask(ctx, req.ID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	s.logger.Debugf("task ID lookup failed, trying invocation ID lookup")
	tasks, err := s.repo.ListTasks(ctx, storage.ListTasksOpts{InvocationID: req.ID})
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task not found: %s: %w", req.ID, model.ErrNotFound)
	}

	return &tasks[0], nil
}
