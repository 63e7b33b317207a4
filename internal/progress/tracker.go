package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/slok/glmcp/internal/model"
)

// TrackerConfig is the configuration of a progress tracker.
type TrackerConfig struct {
	InvocationID string
	Operation    string
	// Total of work, 0 means unknown.
	Total float64
	// OnUpdate is called with every new snapshot, in order.
	OnUpdate func(model.ProgressReport)
}

func (c *TrackerConfig) defaults() error {
	if c.Operation == "" {
		return fmt.Errorf("operation is required")
	}
	if c.Total < 0 {
		return fmt.Errorf("total can't be negative: %w", model.ErrInvalidProgress)
	}
	if c.OnUpdate == nil {
		c.OnUpdate = func(model.ProgressReport) {}
	}
	return nil
}

// Tracker tracks the progress of a single invocation. It is safe to use
// from multiple goroutines of the same handler.
type Tracker struct {
	mu       sync.Mutex
	report   model.ProgressReport
	onUpdate func(model.ProgressReport)
}

// NewTracker returns a tracker with the current progress at 0.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Tracker{
		report: model.ProgressReport{
			InvocationID: cfg.InvocationID,
			Operation:    cfg.Operation,
			Total:        cfg.Total,
			UpdatedAt:    time.Now().UTC(),
		},
		onUpdate: cfg.OnUpdate,
	}, nil
}

// SetTotal changes the total of work, used when the total is discovered while working.
func (t *Tracker) SetTotal(total float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.report.IsComplete {
		return fmt.Errorf("progress already complete: %w", model.ErrInvalidProgress)
	}
	if total < 0 {
		return fmt.Errorf("total can't be negative: %w", model.ErrInvalidProgress)
	}

	t.report.Total = total
	if total > 0 && t.report.Current >= total {
		t.report.IsComplete = true
	}
	t.refresh(t.report.Current, t.report.Message)
	return nil
}

// Advance adds delta to the current progress.
func (t *Tracker) Advance(delta float64, message string) error {
	if delta < 0 {
		return fmt.Errorf("progress delta %v can't be negative: %w", delta, model.ErrInvalidProgress)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.set(t.report.Current+delta, message)
}

// Update sets the current progress. Going backwards fails and leaves the progress untouched.
func (t *Tracker) Update(current float64, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.set(current, message)
}

// Complete finishes the progress. With an unknown total the percentage stays at 0.
func (t *Tracker) Complete(message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.report.IsComplete {
		return fmt.Errorf("progress already complete: %w", model.ErrInvalidProgress)
	}

	current := t.report.Current
	if t.report.Total > 0 && current < t.report.Total {
		current = t.report.Total
	}
	t.report.IsComplete = true
	t.refresh(current, message)

	return nil
}

// Report returns the current snapshot.
func (t *Tracker) Report() model.ProgressReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.report
}

func (t *Tracker) set(current float64, message string) error {
	if t.report.IsComplete {
		return fmt.Errorf("progress already complete: %w", model.ErrInvalidProgress)
	}
	if current < t.report.Current {
		return fmt.Errorf("progress can't go from %v to %v: %w", t.report.Current, current, model.ErrInvalidProgress)
	}

	if t.report.Total > 0 && current >= t.report.Total {
		t.report.IsComplete = true
	}
	t.refresh(current, message)

	return nil
}

// refresh must be called with the lock held.
func (t *Tracker) refresh(current float64, message string) {
	t.report.Current = current
	if message != "" {
		t.report.Message = message
	}
	t.report.Percentage = percentage(current, t.report.Total)
	t.report.UpdatedAt = time.Now().UTC()

	t.onUpdate(t.report)
}

func percentage(current, total float64) float64 {
	if total <= 0 {
		return 0
	}

	ratio := current / total
	switch {
	case ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}

	return ratio * 100
}
