// Package meta implements the runtime operations that let clients discover
// operations and follow their tasks and progress.
package meta

import (
	"context"
	"fmt"
	"iter"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
)

// Operation names.
const (
	OpListOperations = "list_operations"
	OpGetTask        = "get_task"
	OpListTasks      = "list_tasks"
	OpCancelTask     = "cancel_task"
	OpGetProgress    = "get_progress"
)

// OperationLister lists the registered operations.
type OperationLister interface {
	List() iter.Seq[model.Operation]
	ListByCategory(category model.Category) iter.Seq[model.Operation]
}

// RequirementLookup returns the confirmation requirement of an operation.
type RequirementLookup interface {
	Requirement(operation string) (model.ElicitationRequirement, bool)
}

// TaskReader reads tasks.
type TaskReader interface {
	Get(ctx context.Context, id string) (*model.Task, error)
	List(ctx context.Context, state *model.TaskState) ([]model.Task, error)
}

// TaskCanceller cancels tasks.
type TaskCanceller interface {
	CancelTask(ctx context.Context, taskID string) (*model.Task, error)
}

// ProgressReader reads invocation progress.
type ProgressReader interface {
	Get(invocationID string) (model.ProgressReport, error)
}

// OperationsConfig is the configuration of the runtime operations.
type OperationsConfig struct {
	Operations   OperationLister
	Requirements RequirementLookup
	Tasks        TaskReader
	Canceller    TaskCanceller
	Progress     ProgressReader
	Logger       log.Logger
}

func (c *OperationsConfig) defaults() error {
	if c.Operations == nil {
		return fmt.Errorf("operation lister is required")
	}
	if c.Requirements == nil {
		return fmt.Errorf("requirement lookup is required")
	}
	if c.Tasks == nil {
		return fmt.Errorf("task reader is required")
	}
	if c.Canceller == nil {
		return fmt.Errorf("task canceller is required")
	}
	if c.Progress == nil {
		return fmt.Errorf("progress reader is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "meta.Operations"})
	return nil
}

// Operations are the runtime operation handlers.
type Operations struct {
	ops       OperationLister
	reqs      RequirementLookup
	tasks     TaskReader
	canceller TaskCanceller
	progress  ProgressReader
	logger    log.Logger
}

// NewOperations returns the runtime operations.
func NewOperations(cfg OperationsConfig) (*Operations, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Operations{
		ops:       cfg.Operations,
		reqs:      cfg.Requirements,
		tasks:     cfg.Tasks,
		canceller: cfg.Canceller,
		progress:  cfg.Progress,
		logger:    cfg.Logger,
	}, nil
}

// Descriptors returns the runtime operation descriptors.
func (o *Operations) Descriptors() []model.Operation {
	return []model.Operation{
		{
			Name:        OpListOperations,
			Title:       "List operations",
			Description: "List the available operations, optionally of a single category.",
			Category:    model.CategoryRuntime,
			ReadOnly:    true,
			Idempotent:  true,
			Parameters: []model.Parameter{
				{Name: "category", Type: model.ParameterTypeString, Description: "Only operations of this category"},
			},
			Handler: model.HandlerFunc(o.listOperations),
		},
		{
			Name:        OpGetTask,
			Title:       "Get task",
			Description: "Get the state of a long-running operation task, with its result or error once finished.",
			Category:    model.CategoryRuntime,
			ReadOnly:    true,
			Idempotent:  true,
			Parameters: []model.Parameter{
				{Name: "task_id", Type: model.ParameterTypeString, Description: "Task ID", Required: true},
			},
			Handler: model.HandlerFunc(o.getTask),
		},
		{
			Name:        OpListTasks,
			Title:       "List tasks",
			Description: "List the tasks, oldest first, optionally in a single state.",
			Category:    model.CategoryRuntime,
			ReadOnly:    true,
			Idempotent:  true,
			Parameters: []model.Parameter{
				{Name: "state", Type: model.ParameterTypeString, Description: "One of pending, working, completed, failed or cancelled"},
			},
			Handler: model.HandlerFunc(o.listTasks),
		},
		{
			Name:        OpCancelTask,
			Title:       "Cancel task",
			Description: "Cancel a pending or working task. A running handler is asked to stop and its late result is discarded.",
			Category:    model.CategoryRuntime,
			Parameters: []model.Parameter{
				{Name: "task_id", Type: model.ParameterTypeString, Description: "Task ID", Required: true},
			},
			Handler: model.HandlerFunc(o.cancelTask),
		},
		{
			Name:        OpGetProgress,
			Title:       "Get progress",
			Description: "Get the latest progress of an invocation.",
			Category:    model.CategoryRuntime,
			ReadOnly:    true,
			Parameters: []model.Parameter{
				{Name: "invocation_id", Type: model.ParameterTypeString, Description: "Invocation ID", Required: true},
			},
			Handler: model.HandlerFunc(o.getProgress),
		},
	}
}

// OperationInfo is the discovery view of an operation.
type OperationInfo struct {
	Name                 string         `json:"name"`
	Title                string         `json:"title,omitempty"`
	Description          string         `json:"description"`
	Category             model.Category `json:"category"`
	IsDestructive        bool           `json:"is_destructive"`
	IsReadOnly           bool           `json:"is_read_only"`
	IsIdempotent         bool           `json:"is_idempotent"`
	LongRunning          bool           `json:"long_running"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	ConfirmationPrompt   string         `json:"confirmation_prompt,omitempty"`
	RequiredFields       []string       `json:"required_fields,omitempty"`
}

// NewOperationInfo returns the discovery view of an operation.
func NewOperationInfo(op model.Operation, reqs RequirementLookup) OperationInfo {
	info := OperationInfo{
		Name:          op.Name,
		Title:         op.Title,
		Description:   op.Description,
		Category:      op.Category,
		IsDestructive: op.Destructive,
		IsReadOnly:    op.ReadOnly,
		IsIdempotent:  op.Idempotent,
		LongRunning:   op.LongRunning,
	}
	if req, ok := reqs.Requirement(op.Name); ok {
		info.RequiresConfirmation = true
		info.ConfirmationPrompt = req.Prompt
		info.RequiredFields = req.RequiredFields
	}
	return info
}

func (o *Operations) listOperations(ctx context.Context, inv model.Invocation) (any, error) {
	ops := o.ops.List()
	if c, _ := inv.Arguments["category"].(string); c != "" {
		category := model.Category(c)
		if !category.Valid() {
			return nil, model.Validation("unknown category %q", c)
		}
		ops = o.ops.ListByCategory(category)
	}

	infos := []OperationInfo{}
	for op := range ops {
		infos = append(infos, NewOperationInfo(op, o.reqs))
	}

	return infos, nil
}

func (o *Operations) getTask(ctx context.Context, inv model.Invocation) (any, error) {
	id, _ := inv.Arguments["task_id"].(string)
	return o.tasks.Get(ctx, id)
}

func (o *Operations) listTasks(ctx context.Context, inv model.Invocation) (any, error) {
	var state *model.TaskState
	if s, _ := inv.Arguments["state"].(string); s != "" {
		st, err := model.ParseTaskState(s)
		if err != nil {
			return nil, err
		}
		state = &st
	}

	tasks, err := o.tasks.List(ctx, state)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	return tasks, nil
}

func (o *Operations) cancelTask(ctx context.Context, inv model.Invocation) (any, error) {
	id, _ := inv.Arguments["task_id"].(string)
	return o.canceller.CancelTask(ctx, id)
}

func (o *Operations) getProgress(ctx context.Context, inv model.Invocation) (any, error) {
	id, _ := inv.Arguments["invocation_id"].(string)
	return o.progress.Get(id)
}
