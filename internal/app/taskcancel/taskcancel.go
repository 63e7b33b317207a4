package taskcancel

import (
	"context"
	"fmt"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
)

// TaskCanceller cancels tasks.
type TaskCanceller interface {
	Cancel(ctx context.Context, id string) (*model.Task, error)
}

// TaskGetter gets tasks.
type TaskGetter interface {
	Get(ctx context.Context, id string) (*model.Task, error)
}

// ServiceConfig is the configuration for the task cancel service.
type ServiceConfig struct {
	Canceller TaskCanceller
	Getter    TaskGetter
	Logger    log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Canceller == nil {
		return fmt.Errorf("canceller is required")
	}
	if c.Getter == nil {
		return fmt.Errorf("getter is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "taskcancel.Service"})

	return nil
}

// Service cancels tasks.
type Service struct {
	canceller TaskCanceller
	getter    TaskGetter
	logger    log.Logger
}

// NewService creates a new task cancel service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		canceller: cfg.Canceller,
		getter:    cfg.Getter,
		logger:    cfg.Logger,
	}, nil
}

// Request represents the cancel request parameters.
type Request struct {
	TaskID string
	// IgnoreFinished makes cancelling an already finished task a no-op.
	IgnoreFinished bool
}

// Run cancels a pending or working task. A handler running in another process
// keeps running until it finishes, its result is discarded.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("task ID is required: %w", model.ErrNotValid)
	}

	if req.IgnoreFinished {
		t, err := s.getter.Get(ctx, req.TaskID)
		if err != nil {
			return nil, fmt.Errorf("could not get task: %w", err)
		}
		if t.State.IsTerminal() {
			s.logger.Infof("Task %s already %s, nothing to cancel", t.ID, t.State)
			return t, nil
		}
	}

	t, err := s.canceller.Cancel(ctx, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not cancel task: %w", err)
	}
	s.logger.Infof("Task %s cancelled", t.ID)

	return t, nil
}
