// Package registry holds the table of invocable operations.
//
// The registry is populated once at startup and then sealed. After sealing
// it is read-only, so lookups and listings do not take locks.
package registry

import (
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
)

// RegistryConfig is the configuration for the operation registry.
type RegistryConfig struct {
	Logger log.Logger
}

func (c *RegistryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "registry.Registry"})
	return nil
}

// Registry is the operation registry.
type Registry struct {
	mu     sync.Mutex
	sealed atomic.Bool
	byName map[string]model.Operation
	order  []string
	logger log.Logger
}

// NewRegistry returns a new empty and unsealed registry.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Registry{
		byName: map[string]model.Operation{},
		logger: cfg.Logger,
	}, nil
}

// Register adds an operation. It fails if the name is already registered or the
// operation is marked both destructive and read-only.
func (r *Registry) Register(op model.Operation) error {
	if err := op.Validate(); err != nil {
		return fmt.Errorf("invalid operation: %w", err)
	}
	if op.Destructive && op.ReadOnly {
		return fmt.Errorf("operation %q can't be destructive and read-only: %w", op.Name, model.ErrDuplicateOperation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return fmt.Errorf("could not register %q: %w", op.Name, model.ErrRegistrySealed)
	}
	if _, ok := r.byName[op.Name]; ok {
		return fmt.Errorf("operation %q: %w", op.Name, model.ErrDuplicateOperation)
	}

	r.byName[op.Name] = op
	r.order = append(r.order, op.Name)
	r.logger.Debugf("Registered operation %q (category: %s)", op.Name, op.Category)

	return nil
}

// RegisterAll registers multiple operations, stopping at the first failure.
func (r *Registry) RegisterAll(ops ...model.Operation) error {
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			return err
		}
	}
	return nil
}

// Seal makes the registry read-only. Sealing twice is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Swap(true) {
		return
	}
	r.logger.Infof("Operation registry sealed with %d operations", len(r.order))
}

// Sealed returns true once the registry is read-only.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

// Lookup returns the operation registered with name.
func (r *Registry) Lookup(name string) (model.Operation, error) {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	op, ok := r.byName[name]
	if !ok {
		return model.Operation{}, fmt.Errorf("unknown operation %q: %w", name, model.ErrNotFound)
	}

	return op, nil
}

// List returns all the operations in registration order.
func (r *Registry) List() iter.Seq[model.Operation] {
	return r.filter(func(model.Operation) bool { return true })
}

// ListByCategory returns the operations of a category in registration order.
// The sequence is lazy and can be iterated multiple times.
func (r *Registry) ListByCategory(category model.Category) iter.Seq[model.Operation] {
	return r.filter(func(op model.Operation) bool { return op.Category == category })
}

func (r *Registry) filter(match func(model.Operation) bool) iter.Seq[model.Operation] {
	return func(yield func(model.Operation) bool) {
		for _, op := range r.snapshot() {
			if !match(op) {
				continue
			}
			if !yield(op) {
				return
			}
		}
	}
}

func (r *Registry) snapshot() []model.Operation {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	ops := make([]model.Operation, 0, len(r.order))
	for _, name := range r.order {
		ops = append(ops, r.byName[name])
	}
	return ops
}
