package strategy

import (
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Parameters is an untyped strategy parameter map as supplied by callers
// (decoded YAML/JSON, so numbers may arrive as int, int64 or float64).
type Parameters map[string]any

// IntValue returns the named parameter coerced to int, or def when absent.
// Non-numeric values are an error; fractional floats are truncated only
// when exact.
func (p Parameters) IntValue(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, errors.Newf(errors.ErrCodeInvalidParameter,
				"parameter %q must be an integer, got %v", key, v)
		}

		return int(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"parameter %q must be an integer, got %T", key, raw)
	}
}

// FloatValue returns the named parameter coerced to float64, or def when
// absent.
func (p Parameters) FloatValue(key string, def float64) (float64, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"parameter %q must be a number, got %T", key, raw)
	}
}
