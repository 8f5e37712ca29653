package indicator

// SMA computes the simple moving average of values over the given window.
// The first window-1 positions are NaN.
func SMA(values []float64, window int) []float64 {
	return rollingApply(values, window, mean)
}
