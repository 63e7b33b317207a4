// Package elicitation implements the confirmation gate that destructive
// operations must pass before their handler runs.
//
// A confirmation is a data contract: the caller sends an object whose
// required fields must be present and truthy.
package elicitation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
)

// OperationLookup knows how to get registered operations.
type OperationLookup interface {
	Lookup(name string) (model.Operation, error)
}

// GateConfig is the configuration for the elicitation gate.
type GateConfig struct {
	Operations   OperationLookup
	Requirements []model.ElicitationRequirement
	Logger       log.Logger
}

func (c *GateConfig) defaults() error {
	if c.Operations == nil {
		return fmt.Errorf("operations lookup is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "elicitation.Gate"})
	return nil
}

// Gate validates confirmation payloads against the registered requirements.
// It is immutable once created.
type Gate struct {
	requirements map[string]model.ElicitationRequirement
	logger       log.Logger
}

// NewGate returns a new gate. Every requirement must target a registered
// destructive operation.
func NewGate(cfg GateConfig) (*Gate, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	reqs := make(map[string]model.ElicitationRequirement, len(cfg.Requirements))
	for _, req := range cfg.Requirements {
		op, err := cfg.Operations.Lookup(req.Operation)
		if err != nil {
			return nil, fmt.Errorf("elicitation requirement for %q: %w", req.Operation, err)
		}
		if !op.Destructive {
			return nil, fmt.Errorf("elicitation requirement for non destructive operation %q: %w", req.Operation, model.ErrNotValid)
		}
		if _, ok := reqs[req.Operation]; ok {
			return nil, fmt.Errorf("elicitation requirement for %q: %w", req.Operation, model.ErrAlreadyExists)
		}
		if len(req.RequiredFields) == 0 {
			return nil, fmt.Errorf("elicitation requirement for %q without required fields: %w", req.Operation, model.ErrNotValid)
		}

		fields := make([]string, len(req.RequiredFields))
		copy(fields, req.RequiredFields)
		sort.Strings(fields)
		req.RequiredFields = fields
		reqs[req.Operation] = req
	}

	cfg.Logger.Debugf("Elicitation gate loaded with %d requirements", len(reqs))

	return &Gate{
		requirements: reqs,
		logger:       cfg.Logger,
	}, nil
}

// RequiresConfirmation returns true if the operation has a confirmation requirement.
func (g *Gate) RequiresConfirmation(operation string) bool {
	_, ok := g.requirements[operation]
	return ok
}

// Requirement returns the confirmation requirement of an operation.
func (g *Gate) Requirement(operation string) (model.ElicitationRequirement, bool) {
	req, ok := g.requirements[operation]
	return req, ok
}

// ConfirmationError is returned when a confirmation payload doesn't satisfy a requirement.
type ConfirmationError struct {
	Operation string
	// Field is the first missing required field, empty when the whole payload is missing.
	Field  string
	Prompt string
	Err    error
}

func (e *ConfirmationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("operation %q requires confirmation: %s", e.Operation, e.Err)
	}
	return fmt.Sprintf("operation %q confirmation is missing field %q: %s", e.Operation, e.Field, e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// Check validates the confirmation payload of an operation. A nil payload
// means no confirmation was sent.
func (g *Gate) Check(operation string, confirmation map[string]any) error {
	req, ok := g.requirements[operation]
	if !ok {
		return nil
	}

	if confirmation == nil {
		return &ConfirmationError{Operation: operation, Prompt: req.Prompt, Err: model.ErrMissingConfirmation}
	}

	for _, field := range req.RequiredFields {
		if !truthy(confirmation[field]) {
			return &ConfirmationError{Operation: operation, Field: field, Prompt: req.Prompt, Err: model.ErrIncompleteConfirmation}
		}
	}

	g.logger.Debugf("Confirmation accepted for %q", operation)
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "0", "no", "n", "off":
			return false
		}
		return true
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	return true
}
