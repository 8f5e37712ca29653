package indicator

import "math"

// RSI computes the Relative Strength Index over the given window using
// rolling means of gains and losses:
//
//	RS  = avgGain / avgLoss
//	RSI = 100 - 100/(1+RS)
//
// The first window positions are NaN (one for the price delta, window-1 for
// the rolling mean). When the window contains no losses RSI saturates at
// 100; when it contains no gains it saturates at 0; a perfectly flat window
// yields NaN.
func RSI(closes []float64, window int) []float64 {
	n := len(closes)

	out := nans(n)
	if window <= 0 || n < window+1 {
		return out
	}

	gains := nans(n)
	losses := nans(n)

	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}

	avgGain := rollingApply(gains, window, mean)
	avgLoss := rollingApply(losses, window, mean)

	for i := window; i < n; i++ {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}

		switch {
		case l == 0 && g == 0:
			// Flat window: relative strength is undefined.
		case l == 0:
			out[i] = 100.0
		default:
			rs := g / l
			out[i] = 100.0 - 100.0/(1.0+rs)
		}
	}

	return out
}
