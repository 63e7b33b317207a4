package model

import (
	"fmt"
	"slices"
)

// Catalog tunes the built-in operations of a deployment.
type Catalog struct {
	// Confirmations replace or add elicitation requirements by operation.
	Confirmations []ElicitationRequirement
	// LongRunning operations are tracked with a task.
	LongRunning []string
	// Disabled operations are not exposed.
	Disabled []string
}

// Apply returns the operations and requirements adjusted by the catalog.
func (c Catalog) Apply(ops []Operation, reqs []ElicitationRequirement) ([]Operation, []ElicitationRequirement, error) {
	known := make(map[string]bool, len(ops))
	for _, op := range ops {
		known[op.Name] = true
	}
	for _, name := range slices.Concat(c.LongRunning, c.Disabled) {
		if !known[name] {
			return nil, nil, fmt.Errorf("catalog references unknown operation %q: %w", name, ErrNotValid)
		}
	}

	outOps := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if slices.Contains(c.Disabled, op.Name) {
			continue
		}
		if slices.Contains(c.LongRunning, op.Name) {
			op.LongRunning = true
		}
		outOps = append(outOps, op)
	}

	byOp := map[string]ElicitationRequirement{}
	var order []string
	for _, r := range slices.Concat(reqs, c.Confirmations) {
		if _, ok := byOp[r.Operation]; !ok {
			order = append(order, r.Operation)
		}
		byOp[r.Operation] = r
	}

	outReqs := make([]ElicitationRequirement, 0, len(order))
	for _, name := range order {
		if slices.Contains(c.Disabled, name) {
			continue
		}
		outReqs = append(outReqs, byOp[name])
	}

	return outOps, outReqs, nil
}
