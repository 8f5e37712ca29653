package indicator

// OBV computes On-Balance Volume: a running total that adds the bar's
// volume when the close rises, subtracts it when the close falls, and is
// unchanged on flat closes. The first bar contributes zero because it has
// no prior close to compare against.
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))

	total := 0.0
	for i := range closes {
		if i > 0 {
			switch {
			case closes[i] > closes[i-1]:
				total += volumes[i]
			case closes[i] < closes[i-1]:
				total -= volumes[i]
			}
		}

		out[i] = total
	}

	return out
}
