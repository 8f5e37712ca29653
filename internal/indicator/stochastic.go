package indicator

import "math"

// Stochastic computes the stochastic oscillator:
//
//	%K = 100 * (close - lowestLow) / (highestHigh - lowestLow)
//	%D = SMA(%K, dWindow)
//
// where lowestLow and highestHigh range over the trailing kWindow bars.
// %K is NaN for the first kWindow-1 positions and whenever the window range
// is zero; %D inherits %K's padding plus its own dWindow-1 bars.
func Stochastic(highs, lows, closes []float64, kWindow, dWindow int) (percentK, percentD []float64) {
	n := len(closes)

	percentK = nans(n)

	lowestLow := rollingApply(lows, kWindow, func(w []float64) float64 {
		lo := w[0]
		for _, v := range w[1:] {
			lo = math.Min(lo, v)
		}

		return lo
	})
	highestHigh := rollingApply(highs, kWindow, func(w []float64) float64 {
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

		percentK[i] = 100.0 * (closes[i] - lowestLow[i]) / rng
	}

	percentD = SMA(percentK, dWindow)

	return percentK, percentD
}
