// Package runtime wires the GitLab operations, the runtime operations and the
// invocation machinery into a ready to serve runtime.
package runtime

import (
	"fmt"

	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/elicitation"
	"github.com/slok/glmcp/internal/gitlab"
	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/meta"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/progress"
	"github.com/slok/glmcp/internal/registry"
	"github.com/slok/glmcp/internal/storage"
	"github.com/slok/glmcp/internal/task"
)

// Config is the runtime configuration.
type Config struct {
	GitLabURL   string
	GitLabToken string
	// Catalog tunes the GitLab operations, optional.
	Catalog    *model.Catalog
	Repository storage.TaskRepository
	// MaxBackground is the max number of background invocations running at the same time.
	MaxBackground int64
	// ProgressRetention is the number of invocations whose progress is kept.
	ProgressRetention int
	Logger            log.Logger
}

func (c *Config) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("task repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// Runtime is the wired invocation runtime.
type Runtime struct {
	Registry   *registry.Registry
	Gate       *elicitation.Gate
	Tasks      *task.Manager
	Progress   *progress.Store
	Dispatcher *dispatch.Dispatcher
}

// New returns a runtime with a sealed registry.
func New(cfg Config) (*Runtime, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := cfg.Logger

	client, err := gitlab.NewClient(gitlab.ClientConfig{
		Token:   cfg.GitLabToken,
		BaseURL: cfg.GitLabURL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gitlab client: %w", err)
	}
	if cfg.GitLabToken == "" {
		logger.Warningf("No GitLab token set, only public projects will be reachable")
	}

	glOps, err := gitlab.NewOperations(gitlab.OperationsConfig{Client: client, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create gitlab operations: %w", err)
	}

	ops, reqs := glOps.Descriptors(), gitlab.DefaultRequirements()
	if cfg.Catalog != nil {
		ops, reqs, err = cfg.Catalog.Apply(ops, reqs)
		if err != nil {
			return nil, fmt.Errorf("could not apply catalog: %w", err)
		}
	}

	reg, err := registry.NewRegistry(registry.RegistryConfig{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create registry: %w", err)
	}
	if err := reg.RegisterAll(ops...); err != nil {
		return nil, fmt.Errorf("could not register operations: %w", err)
	}

	gate, err := elicitation.NewGate(elicitation.GateConfig{Operations: reg, Requirements: reqs, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create elicitation gate: %w", err)
	}

	tasks, err := task.NewManager(task.ManagerConfig{Repository: cfg.Repository, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create task manager: %w", err)
	}

	ps, err := progress.NewStore(progress.StoreConfig{Retention: cfg.ProgressRetention, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("could not create progress store: %w", err)
	}

	d, err := dispatch.NewDispatcher(dispatch.DispatcherConfig{
		Registry:      reg,
		Gate:          gate,
		Tasks:         tasks,
		Progress:      ps,
		MaxBackground: cfg.MaxBackground,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create dispatcher: %w", err)
	}

	metaOps, err := meta.NewOperations(meta.OperationsConfig{
		Operations:   reg,
		Requirements: gate,
		Tasks:        tasks,
		Canceller:    d,
		Progress:     ps,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create runtime operations: %w", err)
	}
	if err := reg.RegisterAll(metaOps.Descriptors()...); err != nil {
		return nil, fmt.Errorf("could not register runtime operations: %w", err)
	}
	reg.Seal()

	logger.Infof("Runtime ready with %d operations", len(ops)+len(metaOps.Descriptors()))

	return &Runtime{
		Registry:   reg,
		Gate:       gate,
		Tasks:      tasks,
		Progress:   ps,
		Dispatcher: d,
	}, nil
}

// OperationInfos returns the discovery view of the registered operations,
// all of them when category is empty.
func (r *Runtime) OperationInfos(category model.Category) ([]meta.OperationInfo, error) {
	ops := r.Registry.List()
	if category != "" {
		if !category.Valid() {
			return nil, fmt.Errorf("unknown category %q: %w", category, model.ErrNotValid)
		}
		ops = r.Registry.ListByCategory(category)
	}

	infos := []meta.OperationInfo{}
	for op := range ops {
		infos = append(infos, meta.NewOperationInfo(op, r.Gate))
	}
	return infos, nil
}
