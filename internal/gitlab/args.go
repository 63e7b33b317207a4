package gitlab

import (
	"encoding/json"
	"math"

	"github.com/slok/glmcp/internal/model"
)

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func requiredStringArg(args map[string]any, name string) (string, error) {
	s := stringArg(args, name)
	if s == "" {
		return "", model.Validation("argument %q can't be empty", name)
	}
	return s, nil
}

// intArg returns a positive integer argument or the default when missing.
func intArg(args map[string]any, name string, def int) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, model.Validation("argument %q must be a number: %w", name, err)
		}
		f = parsed
	default:
		return 0, model.Validation("argument %q must be a number, got %T", name, v)
	}

	if f != math.Trunc(f) || f < 1 {
		return 0, model.Validation("argument %q must be a positive integer, got %v", name, f)
	}
	if f > math.MaxInt32 {
		return 0, model.Validation("argument %q can't be greater than %d, got %v", name, math.MaxInt32, f)
	}

	return int(f), nil
}
