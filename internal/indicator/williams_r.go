package indicator

import "math"

// WilliamsR computes Williams %R over the given window:
//
//	%R = -100 * (highestHigh - close) / (highestHigh - lowestLow)
//
// Values range from -100 (close at the window low) to 0 (close at the
// window high). The first window-1 positions are NaN, as are positions
// where the window range is zero.
func WilliamsR(highs, lows, closes []float64, window int) []float64 {
	n := len(closes)

	out := nans(n)

	lowestLow := rollingApply(lows, window, func(w []float64) float64 {
		lo := w[0]
		for _, v := range w[1:] {
			lo = math.Min(lo, v)
		}

		return lo
	})
	highestHigh := rollingApply(highs, window, func(w []float64) float64 {
		hi := w[0]
		for _, v := range w[1:] {
			hi = math.Max(hi, v)
		}

		return hi
	})

	for i := 0; i < n; i++ {
		rng := highestHigh[i] - lowestLow[i]
		if math.IsNaN(rng) || rng == 0 {
			continue
		}

		out[i] = -100.0 * (highestHigh[i] - closes[i]) / rng
	}

	return out
}
