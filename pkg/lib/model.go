package lib

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/meta"
	"github.com/slok/glmcp/internal/model"
)

// Category groups operations for discovery.
type Category string

const (
	CategoryProject      Category = "project"
	CategoryRepository   Category = "repository"
	CategoryMergeRequest Category = "merge_request"
	CategoryPipeline     Category = "pipeline"
	CategoryIssue        Category = "issue"
	CategoryRuntime      Category = "runtime"
)

// Operation is the discovery view of an invocable operation.
type Operation struct {
	// Name is the unique operation name used to invoke it.
	Name        string
	Title       string
	Description string
	Category    Category
	// Destructive operations mutate or delete upstream state.
	Destructive bool
	ReadOnly    bool
	Idempotent  bool
	// LongRunning operations are tracked as tasks and can be submitted with [Client.Submit].
	LongRunning bool
	// RequiresConfirmation is true when [InvokeOpts.Confirmation] must carry
	// every field of RequiredFields.
	RequiresConfirmation bool
	ConfirmationPrompt   string
	RequiredFields       []string
}

// TaskState is the lifecycle state of a task.
//
// The lifecycle is:
//
//	pending -> working -> completed | failed | cancelled
//
// A pending task can also be cancelled before it starts.
type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateCancelled TaskState = "cancelled"
)

// IsTerminal returns true if the task will not change anymore.
func (s TaskState) IsTerminal() bool {
	return model.TaskState(s).IsTerminal()
}

// Task tracks a long-running operation invocation.
//
// This is a read-only snapshot, use [Client.GetTask] to get the latest state.
type Task struct {
	ID            string
	OperationName string
	InvocationID  string
	State         TaskState
	// Result is only set when the task is completed.
	Result any
	// Error is only set when the task failed.
	Error     *Error
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Progress is a snapshot of an invocation progress.
type Progress struct {
	InvocationID string
	Operation    string
	Current      float64
	// Total is 0 when unknown.
	Total      float64
	Percentage float64
	IsComplete bool
	Message    string
	UpdatedAt  time.Time
}

// ProgressFunc receives the progress reports of an invocation, in order.
type ProgressFunc func(Progress)

// InvokeOpts configures an invocation.
//
// Pass nil to [Client.Invoke] or [Client.Submit] to use defaults (no confirmation, no progress callback).
type InvokeOpts struct {
	// Confirmation carries the confirmation fields of operations that require it.
	Confirmation map[string]any
	// OnProgress receives every progress report of the invocation.
	OnProgress ProgressFunc
}

// Result is the successful response of an invocation.
type Result struct {
	InvocationID string
	// Value is the operation result.
	Value any
	// Task is the final task snapshot, only set for long-running operations.
	Task *Task
}

// Decode stores the result value in the value pointed by v, using the same
// JSON shape MCP clients receive.
func (r Result) Decode(v any) error {
	return decodeInto(r.Value, v)
}

// Submission is a long-running invocation accepted to run in background.
type Submission struct {
	InvocationID string
	Task         Task
}

// ListTasksOpts configures task listing.
//
// Pass nil to [Client.ListTasks] to list all tasks.
type ListTasksOpts struct {
	// State filters tasks by state. Nil means all states.
	State *TaskState
}

// ErrorKind is the class of an [Error].
type ErrorKind string

const (
	ErrorKindNotFound            ErrorKind = "not_found"
	ErrorKindValidation          ErrorKind = "validation"
	ErrorKindPermission          ErrorKind = "permission"
	ErrorKindAuth                ErrorKind = "auth"
	ErrorKindRateLimited         ErrorKind = "rate_limited"
	ErrorKindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	ErrorKindInternal            ErrorKind = "internal"
)

// Error is the error returned by every client method.
type Error struct {
	Kind    ErrorKind
	Message string
	// Retriable is true when retrying the same call may succeed.
	Retriable bool
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// Is makes errors.Is match the SDK sentinel errors by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == ErrorKindNotFound
	case ErrNotValid:
		return e.Kind == ErrorKindValidation
	}
	return false
}

func newError(kind ErrorKind, msg string) *Error {
	se := model.NewStructuredError(model.ErrorKind(kind), msg)
	return fromStructuredError(se)
}

func fromStructuredError(se model.StructuredError) *Error {
	return &Error{
		Kind:      ErrorKind(se.Kind),
		Message:   se.Message,
		Retriable: se.Retriable,
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return fromStructuredError(dispatch.Classify(err))
}

func fromOperationInfo(info meta.OperationInfo) Operation {
	return Operation{
		Name:                 info.Name,
		Title:                info.Title,
		Description:          info.Description,
		Category:             Category(info.Category),
		Destructive:          info.IsDestructive,
		ReadOnly:             info.IsReadOnly,
		Idempotent:           info.IsIdempotent,
		LongRunning:          info.LongRunning,
		RequiresConfirmation: info.RequiresConfirmation,
		ConfirmationPrompt:   info.ConfirmationPrompt,
		RequiredFields:       info.RequiredFields,
	}
}

func fromInternalTask(t model.Task) Task {
	task := Task{
		ID:            t.ID,
		OperationName: t.OperationName,
		InvocationID:  t.InvocationID,
		State:         TaskState(t.State),
		Result:        t.Result,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.Error != nil {
		task.Error = fromStructuredError(*t.Error)
	}
	return task
}

func fromInternalTaskList(ts []model.Task) []Task {
	result := make([]Task, len(ts))
	for i, t := range ts {
		result[i] = fromInternalTask(t)
	}
	return result
}

func fromInternalProgress(p model.ProgressReport) Progress {
	return Progress{
		InvocationID: p.InvocationID,
		Operation:    p.Operation,
		Current:      p.Current,
		Total:        p.Total,
		Percentage:   p.Percentage,
		IsComplete:   p.IsComplete,
		Message:      p.Message,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toInternalRequest(operation string, args map[string]any, opts *InvokeOpts) dispatch.Request {
	req := dispatch.Request{
		Operation: operation,
		Arguments: args,
	}
	if opts == nil {
		return req
	}

	req.Confirmation = opts.Confirmation
	if opts.OnProgress != nil {
		onProgress := opts.OnProgress
		req.OnProgress = func(p model.ProgressReport) { onProgress(fromInternalProgress(p)) }
	}
	return req
}

func decodeInto(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return newError(ErrorKindInternal, fmt.Sprintf("could not encode result: %s", err))
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return newError(ErrorKindValidation, fmt.Sprintf("could not decode result: %s", err))
	}
	return nil
}
