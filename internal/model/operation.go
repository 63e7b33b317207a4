package model

import (
	"context"
	"fmt"
)

// Category groups operations for discovery and iconography.
type Category string

const (
	CategoryProject      Category = "project"
	CategoryRepository   Category = "repository"
	CategoryMergeRequest Category = "merge_request"
	CategoryPipeline     Category = "pipeline"
	CategoryIssue        Category = "issue"
	CategoryRuntime      Category = "runtime"
)

// Valid returns true if the category is a known one.
func (c Category) Valid() bool {
	switch c {
	case CategoryProject, CategoryRepository, CategoryMergeRequest, CategoryPipeline, CategoryIssue, CategoryRuntime:
		return true
	}
	return false
}

// ParameterType is the JSON type of an operation argument.
type ParameterType string

const (
	ParameterTypeString  ParameterType = "string"
	ParameterTypeNumber  ParameterType = "number"
	ParameterTypeBoolean ParameterType = "boolean"
	ParameterTypeObject  ParameterType = "object"
)

// Parameter describes a single operation argument.
type Parameter struct {
	Name        string
	Type        ParameterType
	Description string
	Required    bool
}

// Operation is the immutable descriptor of an invocable operation.
type Operation struct {
	Name        string
	Title       string
	Description string
	Category    Category
	Destructive bool
	ReadOnly    bool
	Idempotent  bool
	// LongRunning operations get a task tracking their lifecycle.
	LongRunning bool
	Parameters  []Parameter
	Handler     Handler
}

// Validate validates the operation descriptor.
func (o Operation) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}
	if o.Category == "" {
		return fmt.Errorf("category is required: %w", ErrNotValid)
	}
	if o.Handler == nil {
		return fmt.Errorf("handler is required: %w", ErrNotValid)
	}

	seen := map[string]bool{}
	for _, p := range o.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameter name is required: %w", ErrNotValid)
		}
		if seen[p.Name] {
			return fmt.Errorf("parameter %q is repeated: %w", p.Name, ErrNotValid)
		}
		seen[p.Name] = true

		switch p.Type {
		case ParameterTypeString, ParameterTypeNumber, ParameterTypeBoolean, ParameterTypeObject:
		default:
			return fmt.Errorf("parameter %q has unknown type %q: %w", p.Name, p.Type, ErrNotValid)
		}
	}

	return nil
}

// ElicitationRequirement is the confirmation contract of a destructive operation.
type ElicitationRequirement struct {
	Operation      string
	Prompt         string
	RequiredFields []string
}

// Invocation is what a handler receives when its operation is invoked.
type Invocation struct {
	ID        string
	Operation string
	Arguments map[string]any
	// TaskID is set only for long-running operations.
	TaskID   string
	Progress ProgressReporter
}

// ProgressReporter lets a running handler publish how much work is done.
type ProgressReporter interface {
	// SetTotal sets the amount of work once known, 0 means unknown.
	SetTotal(total float64) error
	// Advance adds delta to the current progress.
	Advance(delta float64, message string) error
	// Update sets the current progress to an absolute value.
	Update(current float64, message string) error
	// Complete marks the work as finished.
	Complete(message string) error
}

// Handler performs the work of an operation.
type Handler interface {
	Handle(ctx context.Context, inv Invocation) (any, error)
}

// HandlerFunc is a helper to create handlers from functions.
type HandlerFunc func(ctx context.Context, inv Invocation) (any, error)

// Handle satisfies Handler interface.
func (h HandlerFunc) Handle(ctx context.Context, inv Invocation) (any, error) {
	return h(ctx, inv)
}
