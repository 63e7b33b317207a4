// Package dispatch runs operation invocations end to end.
//
// An invocation is looked up in the registry, its arguments validated, its
// confirmation checked, and only then its handler runs. Long-running operations
// are tracked by a task, and every failure is classified into a structured error,
// so each invocation gets exactly one outcome.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/progress"
)

//go:generate mockery --case underscore --output dispatchmock --outpkg dispatchmock --srcpkg github.com/slok/glmcp/internal/model --name Handler

// OperationRegistry knows the invocable operations.
type OperationRegistry interface {
	Lookup(name string) (model.Operation, error)
}

// ConfirmationGate checks destructive operations are confirmed.
type ConfirmationGate interface {
	Check(operation string, confirmation map[string]any) error
}

// TaskManager tracks long-running invocations.
type TaskManager interface {
	Create(ctx context.Context, operationName, invocationID string) (*model.Task, error)
	Start(ctx context.Context, id string) (*model.Task, error)
	Complete(ctx context.Context, id string, result any) (*model.Task, error)
	Fail(ctx context.Context, id string, taskErr model.StructuredError) (*model.Task, error)
	Cancel(ctx context.Context, id string) (*model.Task, error)
}

// ProgressStore creates the progress trackers of invocations.
type ProgressStore interface {
	Track(cfg progress.TrackerConfig) (*progress.Tracker, error)
}

const defaultMaxBackground = 16

// DispatcherConfig is the configuration of the dispatcher.
type DispatcherConfig struct {
	Registry OperationRegistry
	Gate     ConfirmationGate
	Tasks    TaskManager
	Progress ProgressStore
	// MaxBackground is the max number of submitted invocations running at the same time.
	MaxBackground int64
	Logger        log.Logger
	// NewID returns new invocation IDs, defaults to ULIDs.
	NewID func() string
}

func (c *DispatcherConfig) defaults() error {
	if c.Registry == nil {
		return fmt.Errorf("registry is required")
	}
	if c.Gate == nil {
		return fmt.Errorf("gate is required")
	}
	if c.Tasks == nil {
		return fmt.Errorf("task manager is required")
	}
	if c.Progress == nil {
		return fmt.Errorf("progress store is required")
	}
	if c.MaxBackground == 0 {
		c.MaxBackground = defaultMaxBackground
	}
	if c.MaxBackground < 0 {
		return fmt.Errorf("max background can't be negative")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "dispatch.Dispatcher"})
	if c.NewID == nil {
		c.NewID = func() string { return ulid.Make().String() }
	}
	return nil
}

// Request is an invocation request.
type Request struct {
	Operation    string
	Arguments    map[string]any
	Confirmation map[string]any
	// OnProgress receives every progress report of the invocation, in order.
	OnProgress func(model.ProgressReport)
}

// Outcome is the single response of an invocation, either Result or Err is set.
type Outcome struct {
	InvocationID string
	// Task is the final task snapshot, only for long-running operations.
	Task   *model.Task
	Result any
	Err    *model.StructuredError
}

// Failed returns true if the invocation failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// Submission is a background invocation that has been accepted.
type Submission struct {
	InvocationID string     `json:"invocation_id"`
	Task         model.Task `json:"task"`
}

// Dispatcher orchestrates operation invocations.
type Dispatcher struct {
	registry OperationRegistry
	gate     ConfirmationGate
	tasks    TaskManager
	progress ProgressStore
	sem      *semaphore.Weighted
	logger   log.Logger
	newID    func() string

	wg      sync.WaitGroup
	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewDispatcher returns a new dispatcher.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Dispatcher{
		registry: cfg.Registry,
		gate:     cfg.Gate,
		tasks:    cfg.Tasks,
		progress: cfg.Progress,
		sem:      semaphore.NewWeighted(cfg.MaxBackground),
		logger:   cfg.Logger,
		newID:    cfg.NewID,
		running:  map[string]context.CancelFunc{},
	}, nil
}

// Invoke runs an operation and waits for its outcome.
func (d *Dispatcher) Invoke(ctx context.Context, req Request) Outcome {
	invID := d.newID()
	ctx = d.logger.SetValuesOnCtx(ctx, log.Kv{"invocation-id": invID, "operation": req.Operation})
	logger := d.logger.WithCtxValues(ctx)

	op, err := d.admit(req)
	if err != nil {
		logger.Debugf("Invocation rejected: %s", err)
		return failed(invID, nil, err)
	}

	inv, err := d.prepare(ctx, op, invID, req)
	if err != nil {
		logger.Errorf("Could not prepare invocation: %s", err)
		return failed(invID, nil, err)
	}

	var t *model.Task
	if op.LongRunning {
		t, err = d.tasks.Create(ctx, op.Name, invID)
		if err != nil {
			logger.Errorf("Could not create task: %s", err)
			return failed(invID, nil, err)
		}
		inv.TaskID = t.ID
	}

	return d.run(ctx, op, inv, t)
}

// Submit starts a long-running operation in the background and returns its pending task.
// The returned error is always a model.StructuredError.
func (d *Dispatcher) Submit(ctx context.Context, req Request) (*Submission, error) {
	invID := d.newID()
	ctx = d.logger.SetValuesOnCtx(ctx, log.Kv{"invocation-id": invID, "operation": req.Operation})
	logger := d.logger.WithCtxValues(ctx)

	op, err := d.admit(req)
	if err != nil {
		return nil, Classify(err)
	}
	if !op.LongRunning {
		return nil, Classify(model.Validation("operation %q can't run in background", op.Name))
	}

	if !d.sem.TryAcquire(1) {
		return nil, Classify(model.RateLimited("too many background invocations running"))
	}

	inv, err := d.prepare(ctx, op, invID, req)
	if err != nil {
		d.sem.Release(1)
		return nil, Classify(err)
	}

	t, err := d.tasks.Create(ctx, op.Name, invID)
	if err != nil {
		d.sem.Release(1)
		return nil, Classify(err)
	}
	inv.TaskID = t.ID
	sub := &Submission{InvocationID: invID, Task: *t}

	// The background run outlives the request.
	bgCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)

		out := d.run(bgCtx, op, inv, t)
		if out.Failed() {
			logger.Warningf("Background invocation failed: %s", out.Err)
			return
		}
		logger.Debugf("Background invocation finished")
	}()

	return sub, nil
}

// CancelTask cancels a task and signals its running handler, if any, to stop.
func (d *Dispatcher) CancelTask(ctx context.Context, taskID string) (*model.Task, error) {
	t, err := d.tasks.Cancel(ctx, taskID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	cancel, ok := d.running[taskID]
	d.mu.Unlock()
	if ok {
		cancel()
	}

	d.logger.WithCtxValues(ctx).Infof("Task %s cancelled", taskID)
	return t, nil
}

// CancelRunning cancels every task whose handler is still running and returns
// the cancelled task IDs.
func (d *Dispatcher) CancelRunning(ctx context.Context) []string {
	d.mu.Lock()
	ids := make([]string, 0, len(d.running))
	for id := range d.running {
		ids = append(ids, id)
	}
	d.mu.Unlock()
	sort.Strings(ids)

	done := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := d.CancelTask(ctx, id); err != nil {
			// Finished in the meantime.
			d.logger.WithCtxValues(ctx).Warningf("Could not cancel task %s: %s", id, err)
			continue
		}
		done = append(done, id)
	}

	return done
}

// Wait blocks until all the background invocations finish or the context is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// admit runs the checks that must pass before any side effect.
func (d *Dispatcher) admit(req Request) (model.Operation, error) {
	op, err := d.registry.Lookup(req.Operation)
	if err != nil {
		return model.Operation{}, err
	}

	if err := validateArguments(op, req.Arguments); err != nil {
		return model.Operation{}, err
	}

	if err := d.gate.Check(op.Name, req.Confirmation); err != nil {
		return model.Operation{}, err
	}

	return op, nil
}

func (d *Dispatcher) prepare(ctx context.Context, op model.Operation, invID string, req Request) (model.Invocation, error) {
	tracker, err := d.progress.Track(progress.TrackerConfig{
		InvocationID: invID,
		Operation:    op.Name,
		OnUpdate:     req.OnProgress,
	})
	if err != nil {
		return model.Invocation{}, fmt.Errorf("could not track progress: %w", err)
	}

	args := req.Arguments
	if args == nil {
		args = map[string]any{}
	}

	return model.Invocation{
		ID:        invID,
		Operation: op.Name,
		Arguments: args,
		Progress:  tracker,
	}, nil
}

func (d *Dispatcher) run(ctx context.Context, op model.Operation, inv model.Invocation, t *model.Task) Outcome {
	logger := d.logger.WithCtxValues(ctx)

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if t != nil {
		ctx = d.logger.SetValuesOnCtx(ctx, log.Kv{"task-id": t.ID})
		handlerCtx = d.logger.SetValuesOnCtx(handlerCtx, log.Kv{"task-id": t.ID})

		d.mu.Lock()
		d.running[t.ID] = cancel
		d.mu.Unlock()
		defer func() {
			d.mu.Lock()
			delete(d.running, t.ID)
			d.mu.Unlock()
		}()

		started, err := d.tasks.Start(ctx, t.ID)
		if err != nil {
			// Cancelled before starting.
			logger.Warningf("Could not start task: %s", err)
			return failed(inv.ID, t, err)
		}
		t = started
	}

	result, err := callHandler(handlerCtx, op.Handler, inv)

	// Task bookkeeping must happen even if the caller went away.
	storeCtx := context.WithoutCancel(ctx)

	if err != nil {
		se := Classify(err)
		logger.Debugf("Handler failed: %s", se)
		if t != nil {
			ft, ferr := d.tasks.Fail(storeCtx, t.ID, se)
			if ferr != nil {
				logger.Errorf("Could not fail task: %s", ferr)
				return failed(inv.ID, t, ferr)
			}
			t = ft
			if t.State == model.TaskStateCancelled {
				return cancelled(inv.ID, t)
			}
		}
		return Outcome{InvocationID: inv.ID, Task: t, Err: &se}
	}

	if t != nil {
		ct, cerr := d.tasks.Complete(storeCtx, t.ID, result)
		if cerr != nil {
			logger.Errorf("Could not complete task: %s", cerr)
			// The task must still reach a terminal state with the error returned to the caller.
			se := Classify(cerr)
			ft, ferr := d.tasks.Fail(storeCtx, t.ID, se)
			if ferr != nil {
				logger.Errorf("Could not fail task: %s", ferr)
				return Outcome{InvocationID: inv.ID, Task: t, Err: &se}
			}
			if ft.State == model.TaskStateCancelled {
				return cancelled(inv.ID, ft)
			}
			return Outcome{InvocationID: inv.ID, Task: ft, Err: &se}
		}
		t = ct
		if t.State == model.TaskStateCancelled {
			logger.Infof("Discarding result of cancelled task")
			return cancelled(inv.ID, t)
		}
	}

	if tr, ok := inv.Progress.(*progress.Tracker); ok && !tr.Report().IsComplete {
		_ = tr.Complete("")
	}

	return Outcome{InvocationID: inv.ID, Task: t, Result: result}
}

// callHandler runs the handler turning panics into internal errors.
func callHandler(ctx context.Context, h model.Handler, inv model.Invocation) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = model.Internal("handler panicked: %v", r)
		}
	}()

	return h.Handle(ctx, inv)
}

// cancelled reports the outcome of an invocation whose task was cancelled while running.
func cancelled(invID string, t *model.Task) Outcome {
	return failed(invID, t, model.Internal("task %s was cancelled", t.ID))
}

func failed(invID string, t *model.Task, err error) Outcome {
	se := Classify(err)
	return Outcome{InvocationID: invID, Task: t, Err: &se}
}
