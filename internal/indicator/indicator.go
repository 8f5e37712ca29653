// Package indicator provides vectorized technical indicator transforms.
//
// Every function maps input column(s) of length n to output column(s) of
// length n. Positions that fall inside an indicator's lookback window are
// filled with NaN rather than dropped, so outputs stay aligned 1:1 with the
// input bars. The functions are pure: they never error and never mutate
// their inputs. Window validation is the caller's job (strategies validate
// parameters before computing).
package indicator

import "math"

// nans returns a slice of length n filled with NaN.
func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// rollingApply computes fn over each trailing window of the input. The first
// window-1 positions are NaN. A NaN anywhere in a window makes that output
// NaN, matching rolling-aggregate semantics.
func rollingApply(values []float64, window int, fn func(window []float64) float64) []float64 {
	out := nans(len(values))
	if window <= 0 || window > len(values) {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		frame := values[i-window+1 : i+1]
		if hasNaN(frame) {
			continue
		}

		out[i] = fn(frame)
	}

	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// sampleStdDev is the sample standard deviation (n-1 denominator).
// Returns 0 for windows of length 1.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

// typicalPrices returns (high + low + close) / 3 per bar.
func typicalPrices(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = (highs[i] + lows[i] + closes[i]) / 3.0
	}

	return out
}
