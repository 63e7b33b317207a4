package dispatch

import (
	"encoding/json"

	"github.com/slok/glmcp/internal/model"
)

// validateArguments checks the arguments against the declared parameters.
// Arguments without a declared parameter are passed through.
func validateArguments(op model.Operation, args map[string]any) error {
	for _, p := range op.Parameters {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return model.Validation("missing required argument %q", p.Name)
			}
			continue
		}

		if !matchesType(p.Type, v) {
			return model.Validation("argument %q must be a %s, got %T", p.Name, p.Type, v)
		}
	}

	return nil
}

func matchesType(t model.ParameterType, v any) bool {
	switch t {
	case model.ParameterTypeString:
		_, ok := v.(string)
		return ok
	case model.ParameterTypeBoolean:
		_, ok := v.(bool)
		return ok
	case model.ParameterTypeObject:
		_, ok := v.(map[string]any)
		return ok
	case model.ParameterTypeNumber:
		switch v.(type) {
		case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
			return true
		}
		return false
	}

	return false
}
