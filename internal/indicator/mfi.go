package indicator

import "math"

// MFI computes the Money Flow Index over the given window. Raw money flow
// (typicalPrice * volume) is classified as positive or negative by the
// direction of the typical price change, and
//
//	MFI = 100 - 100 / (1 + positiveFlowSum/negativeFlowSum)
//
// The first window positions are NaN. MFI saturates at 100 when the window
// has no negative flow and at 0 when it has no positive flow; a window with
// neither is NaN.
func MFI(highs, lows, closes, volumes []float64, window int) []float64 {
	n := len(closes)

	out := nans(n)
	if window <= 0 || n < window+1 {
		return out
	}

	tp := typicalPrices(highs, lows, closes)

	posFlow := nans(n)
	negFlow := nans(n)

	for i := 1; i < n; i++ {
		flow := tp[i] * volumes[i]

		posFlow[i] = 0
		negFlow[i] = 0

		switch {
		case tp[i] > tp[i-1]:
			posFlow[i] = flow
		case tp[i] < tp[i-1]:
			negFlow[i] = flow
		}
	}

	sum := func(w []float64) float64 {
		s := 0.0
		for _, v := range w {
			s += v
		}

		return s
	}

	posSum := rollingApply(posFlow, window, sum)
	negSum := rollingApply(negFlow, window, sum)

	for i := window; i < n; i++ {
		p, ng := posSum[i], negSum[i]
		if math.IsNaN(p) || math.IsNaN(ng) {
			continue
		}

		switch {
		case ng == 0 && p == 0:
			// No flow either way: index is undefined.
		case ng == 0:
			out[i] = 100.0
		default:
			ratio := p / ng
			out[i] = 100.0 - 100.0/(1.0+ratio)
		}
	}

	return out
}
