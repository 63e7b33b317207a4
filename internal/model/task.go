package model

import (
	"fmt"
	"time"
)

// TaskState represents the state of a task.
type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateCancelled TaskState = "cancelled"
)

var validTaskTransitions = map[TaskState]map[TaskState]bool{
	TaskStatePending: {
		TaskStateWorking:   true,
		TaskStateCancelled: true,
	},
	TaskStateWorking: {
		TaskStateCompleted: true,
		TaskStateFailed:    true,
		TaskStateCancelled: true,
	},
}

// ParseTaskState parses a task state.
func ParseTaskState(s string) (TaskState, error) {
	st := TaskState(s)
	switch st {
	case TaskStatePending, TaskStateWorking, TaskStateCompleted, TaskStateFailed, TaskStateCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown task state %q: %w", s, ErrNotValid)
}

// IsTerminal returns true if no transition can leave the state.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed || s == TaskStateCancelled
}

// ValidateTaskTransition checks if a task can move from one state to another.
func ValidateTaskTransition(from, to TaskState) error {
	if validTaskTransitions[from][to] {
		return nil
	}
	return fmt.Errorf("task %s -> %s: %w", from, to, ErrInvalidTransition)
}

// Task tracks a long-running operation invocation.
type Task struct {
	ID            string    `json:"id"`
	OperationName string    `json:"operation_name"`
	InvocationID  string    `json:"invocation_id"`
	State         TaskState `json:"state"`
	// Result is only set when the task is completed.
	Result any `json:"result,omitempty"`
	// Error is only set when the task failed.
	Error     *StructuredError `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
