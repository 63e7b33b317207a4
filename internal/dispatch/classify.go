package dispatch

import (
	"context"
	"errors"
	"net"

	"github.com/slok/glmcp/internal/model"
)

// Classify maps any error into a structured error. Unknown errors end as internal
// keeping their message.
func Classify(err error) model.StructuredError {
	if err == nil {
		return model.NewStructuredError(model.ErrorKindInternal, "unknown error")
	}

	var se model.StructuredError
	if errors.As(err, &se) {
		return model.NewStructuredError(se.Kind, se.Message)
	}
	var sep *model.StructuredError
	if errors.As(err, &sep) && sep != nil {
		return model.NewStructuredError(sep.Kind, sep.Message)
	}

	var ke *model.KindError
	if errors.As(err, &ke) {
		return model.NewStructuredError(ke.Kind, err.Error())
	}

	return model.NewStructuredError(classifyKind(err), err.Error())
}

func classifyKind(err error) model.ErrorKind {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.ErrorKindNotFound
	case errors.Is(err, model.ErrNotValid),
		errors.Is(err, model.ErrAlreadyExists),
		errors.Is(err, model.ErrMissingConfirmation),
		errors.Is(err, model.ErrIncompleteConfirmation),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrInvalidProgress):
		return model.ErrorKindValidation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return model.ErrorKindUpstreamUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return model.ErrorKindUpstreamUnavailable
	}

	return model.ErrorKindInternal
}
