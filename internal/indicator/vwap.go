package indicator

import (
	"math"

	"github.com/moznion/go-optional"
)

// VWAP computes the Volume Weighted Average Price from typical prices.
// With no window it is cumulative from the start of the series; with a
// window it becomes a rolling VWAP over the trailing window bars, NaN for
// the first window-1 positions. Positions whose volume sum is zero are NaN.
func VWAP(highs, lows, closes, volumes []float64, window optional.Option[int]) []float64 {
	n := len(closes)

	tp := typicalPrices(highs, lows, closes)

	flows := make([]float64, n)
	for i := range flows {
		flows[i] = tp[i] * volumes[i]
	}

	out := nans(n)

	if window.IsNone() {
		flowSum, volSum := 0.0, 0.0
		for i := 0; i < n; i++ {
			flowSum += flows[i]
			volSum += volumes[i]

			if volSum != 0 {
				out[i] = flowSum / volSum
			}
		}

		return out
	}

	w, err := window.Take()
	if err != nil || w <= 0 || w > n {
		return out
	}

	sum := func(frame []float64) float64 {
		s := 0.0
		for _, v := range frame {
			s += v
		}

		return s
	}

	flowSums := rollingApply(flows, w, sum)
	volSums := rollingApply(volumes, w, sum)

	for i := 0; i < n; i++ {
		if math.IsNaN(flowSums[i]) || math.IsNaN(volSums[i]) || volSums[i] == 0 {
			continue
		}

		out[i] = flowSums[i] / volSums[i]
	}

	return out
}
