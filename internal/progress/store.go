// Package progress tracks how much work running invocations have done.
package progress

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
)

const defaultRetention = 1024

// StoreConfig is the configuration of the progress store.
type StoreConfig struct {
	// Retention is the max number of invocations whose progress is kept.
	Retention int
	Logger    log.Logger
}

func (c *StoreConfig) defaults() error {
	if c.Retention == 0 {
		c.Retention = defaultRetention
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention can't be negative")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "progress.Store"})
	return nil
}

// Store keeps the trackers of the latest invocations so their progress can be queried.
// The least recently used trackers are evicted first.
type Store struct {
	trackers *lru.Cache[string, *Tracker]
	logger   log.Logger
}

// NewStore returns a new progress store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cache, err := lru.New[string, *Tracker](cfg.Retention)
	if err != nil {
		return nil, fmt.Errorf("could not create lru cache: %w", err)
	}

	return &Store{
		trackers: cache,
		logger:   cfg.Logger,
	}, nil
}

// Track creates and stores a new tracker for an invocation.
func (s *Store) Track(cfg TrackerConfig) (*Tracker, error) {
	if cfg.InvocationID == "" {
		return nil, fmt.Errorf("invocation id is required: %w", model.ErrNotValid)
	}

	t, err := NewTracker(cfg)
	if err != nil {
		return nil, err
	}

	if ok, _ := s.trackers.ContainsOrAdd(cfg.InvocationID, t); ok {
		return nil, fmt.Errorf("progress for invocation %s: %w", cfg.InvocationID, model.ErrAlreadyExists)
	}

	return t, nil
}

// Get returns the latest progress report of an invocation.
func (s *Store) Get(invocationID string) (model.ProgressReport, error) {
	t, ok := s.trackers.Get(invocationID)
	if !ok {
		return model.ProgressReport{}, fmt.Errorf("progress for invocation %s: %w", invocationID, model.ErrNotFound)
	}

	return t.Report(), nil
}
