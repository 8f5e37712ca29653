package indicator

import "math"

// ATR computes the Average True Range: the rolling mean over window of the
// true range, where true range is the greatest of high-low,
// |high - previousClose| and |low - previousClose|. The first bar's true
// range falls back to high-low. The first window-1 positions are NaN.
func ATR(highs, lows, closes []float64, window int) []float64 {
	n := len(closes)

	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		r := highs[i] - lows[i]
		if i > 0 {
			r = math.Max(r, math.Abs(highs[i]-closes[i-1]))
			r = math.Max(r, math.Abs(lows[i]-closes[i-1]))
		}

		tr[i] = r
	}

	return rollingApply(tr, window, mean)
}
