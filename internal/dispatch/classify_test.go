package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/elicitation"
	"github.com/slok/glmcp/internal/model"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		err    error
		expErr model.StructuredError
	}{
		"A kind error should keep its kind.": {
			err:    fmt.Errorf("wrapped: %w", model.Permission("no rights on %s", "group/project")),
			expErr: model.StructuredError{Kind: model.ErrorKindPermission, Message: "wrapped: no rights on group/project"},
		},

		"A retriable kind error should be retriable.": {
			err:    model.RateLimited("slow down"),
			expErr: model.StructuredError{Kind: model.ErrorKindRateLimited, Message: "slow down", Retriable: true},
		},

		"A structured error should pass through.": {
			err:    model.NewStructuredError(model.ErrorKindAuth, "bad token"),
			expErr: model.StructuredError{Kind: model.ErrorKindAuth, Message: "bad token"},
		},

		"A structured error with an unknown kind should be coerced to internal.": {
			err:    model.StructuredError{Kind: "weird", Message: "x"},
			expErr: model.StructuredError{Kind: model.ErrorKindInternal, Message: "x"},
		},

		"Not found sentinel should be not found.": {
			err:    fmt.Errorf("unknown operation %q: %w", "does_not_exist", model.ErrNotFound),
			expErr: model.StructuredError{Kind: model.ErrorKindNotFound, Message: `unknown operation "does_not_exist": not found`},
		},

		"Confirmation errors should be validation.": {
			err:    &elicitation.ConfirmationError{Operation: "delete_branch", Err: model.ErrMissingConfirmation},
			expErr: model.StructuredError{Kind: model.ErrorKindValidation},
		},

		"Invalid transitions should be validation.": {
			err:    fmt.Errorf("task: %w", model.ErrInvalidTransition),
			expErr: model.StructuredError{Kind: model.ErrorKindValidation, Message: "task: invalid transition"},
		},

		"A deadline should be upstream unavailable.": {
			err:    fmt.Errorf("calling gitlab: %w", context.DeadlineExceeded),
			expErr: model.StructuredError{Kind: model.ErrorKindUpstreamUnavailable, Message: "calling gitlab: context deadline exceeded", Retriable: true},
		},

		"A network error should be upstream unavailable.": {
			err:    fmt.Errorf("dial: %w", timeoutErr{}),
			expErr: model.StructuredError{Kind: model.ErrorKindUpstreamUnavailable, Message: "dial: i/o timeout", Retriable: true},
		},

		"Unknown errors should be internal preserving the message.": {
			err:    errors.New("something odd"),
			expErr: model.StructuredError{Kind: model.ErrorKindInternal, Message: "something odd"},
		},

		"A nil error should be internal.": {
			err:    nil,
			expErr: model.StructuredError{Kind: model.ErrorKindInternal, Message: "unknown error"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := dispatch.Classify(test.err)

			assert.Equal(t, test.expErr.Kind, got.Kind)
			assert.Equal(t, test.expErr.Retriable, got.Retriable)
			if test.expErr.Message != "" {
				assert.Equal(t, test.expErr.Message, got.Message)
			}
		})
	}
}
