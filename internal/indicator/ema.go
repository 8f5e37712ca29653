package indicator

import "github.com/moznion/go-optional"

// EMA computes the exponential moving average of values. The smoothing
// factor defaults to 2 / (window + 1) and can be overridden with an
// explicit alpha, in which case the window is ignored. The average is
// seeded with the first value, so the output is defined from index 0 and
// carries no NaN padding (unless the input itself contains NaN).
func EMA(values []float64, window int, alpha optional.Option[float64]) []float64 {
	if len(values) == 0 {
		return nil
	}

	a := alpha.TakeOr(2.0 / (float64(window) + 1.0))
	if alpha.IsNone() && window <= 0 {
		return nans(len(values))
	}

	out := make([]float64, len(values))
	out[0] = values[0]

	for i := 1; i < len(values); i++ {
		out[i] = a*values[i] + (1.0-a)*out[i-1]
	}

	return out
}
