package indicator

import "math"

// CCI computes the Commodity Channel Index over the given window:
//
//	CCI = (typicalPrice - SMA(typicalPrice)) / (0.015 * meanAbsDeviation)
//
// where typicalPrice is (high+low+close)/3 and meanAbsDeviation is the mean
// absolute deviation of the typical price within the window. The first
// window-1 positions are NaN, as are positions with zero deviation.
func CCI(highs, lows, closes []float64, window int) []float64 {
	tp := typicalPrices(highs, lows, closes)

	smaTP := rollingApply(tp, window, mean)
	mad := rollingApply(tp, window, func(w []float64) float64 {
		m := mean(w)

		sum := 0.0
		for _, v := range w {
			sum += math.Abs(v - m)
		}

		return sum / float64(len(w))
	})

	out := nans(len(closes))
	for i := range out {
		if math.IsNaN(smaTP[i]) || math.IsNaN(mad[i]) || mad[i] == 0 {
			continue
		}

		out[i] = (tp[i] - smaTP[i]) / (0.015 * mad[i])
	}

	return out
}
