package indicator

// BollingerBands computes the middle band (SMA over window) and the upper
// and lower bands offset by numStdDev sample standard deviations. The first
// window-1 positions of each band are NaN.
func BollingerBands(closes []float64, window int, numStdDev float64) (upper, middle, lower []float64) {
	middle = SMA(closes, window)
	stddev := rollingApply(closes, window, sampleStdDev)

	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))

	for i := range closes {
		upper[i] = middle[i] + numStdDev*stddev[i]
		lower[i] = middle[i] - numStdDev*stddev[i]
	}

	return upper, middle, lower
}

// RollingStdDev computes the rolling sample standard deviation over the
// given window, NaN for the first window-1 positions.
func RollingStdDev(values []float64, window int) []float64 {
	return rollingApply(values, window, sampleStdDev)
}
