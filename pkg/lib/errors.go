package lib

import "errors"

var (
	// ErrNotFound matches errors about an operation, task, progress or GitLab
	// resource that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotValid matches errors about invalid arguments, missing confirmations
	// or not allowed task transitions.
	ErrNotValid = errors.New("not valid")
)
