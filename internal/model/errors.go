package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrDuplicateOperation is returned when an operation is registered twice or
	// its descriptor is contradictory.
	ErrDuplicateOperation = errors.New("duplicate operation")
	// ErrRegistrySealed is returned when registering on a sealed registry.
	ErrRegistrySealed = errors.New("registry sealed")
	// ErrInvalidTransition is returned when a task state transition is not allowed.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrInvalidProgress is returned when a progress update would decrease the current value
	// or the tracker is already complete.
	ErrInvalidProgress = errors.New("invalid progress")
	// ErrMissingConfirmation is returned when a confirmation is required and none was sent.
	ErrMissingConfirmation = errors.New("missing confirmation")
	// ErrIncompleteConfirmation is returned when a confirmation lacks a required field.
	ErrIncompleteConfirmation = errors.New("incomplete confirmation")
)
