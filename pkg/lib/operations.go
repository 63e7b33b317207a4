package lib

import (
	"context"
	"fmt"

	"github.com/slok/glmcp/internal/model"
)

// ListOperations returns the invocable operations in registration order.
//
// An empty category returns all of them. Returns [ErrNotValid] for an unknown category.
func (c *Client) ListOperations(ctx context.Context, category Category) ([]Operation, error) {
	infos, err := c.rt.OperationInfos(model.Category(category))
	if err != nil {
		return nil, mapError(err)
	}

	ops := make([]Operation, 0, len(infos))
	for _, info := range infos {
		ops = append(ops, fromOperationInfo(info))
	}
	return ops, nil
}

// Invoke runs an operation and waits for its result.
//
// Long-running operations are tracked as a task while they run, the final
// snapshot is returned in [Result.Task]. Cancelling ctx stops the operation.
func (c *Client) Invoke(ctx context.Context, operation string, args map[string]any, opts *InvokeOpts) (*Result, error) {
	out := c.dispatcher().Invoke(ctx, toInternalRequest(operation, args, opts))
	if out.Failed() {
		return nil, fromStructuredError(*out.Err)
	}

	res := &Result{
		InvocationID: out.InvocationID,
		Value:        out.Result,
	}
	if out.Task != nil {
		t := fromInternalTask(*out.Task)
		res.Task = &t
	}
	return res, nil
}

// Submit starts a long-running operation in background and returns right away.
//
// Returns [ErrNotValid] if the operation is not long-running. The operation
// keeps running after ctx ends, use [Client.CancelTask] to stop it.
func (c *Client) Submit(ctx context.Context, operation string, args map[string]any, opts *InvokeOpts) (*Submission, error) {
	sub, err := c.dispatcher().Submit(ctx, toInternalRequest(operation, args, opts))
	if err != nil {
		return nil, mapError(err)
	}

	return &Submission{
		InvocationID: sub.InvocationID,
		Task:         fromInternalTask(sub.Task),
	}, nil
}

// GetProgress returns the latest progress of a recent invocation.
//
// Returns [ErrNotFound] if the invocation is unknown or its progress was evicted.
func (c *Client) GetProgress(ctx context.Context, invocationID string) (*Progress, error) {
	if invocationID == "" {
		return nil, newError(ErrorKindValidation, "invocation ID is required")
	}

	p, err := c.rt.Progress.Get(invocationID)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not get progress: %w", err))
	}

	out := fromInternalProgress(p)
	return &out, nil
}
