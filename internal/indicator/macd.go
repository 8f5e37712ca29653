package indicator

import "github.com/moznion/go-optional"

// MACD computes the Moving Average Convergence Divergence:
// the MACD line (fast EMA minus slow EMA), the signal line (EMA of the MACD
// line over signalWindow), and the histogram (MACD minus signal). All three
// outputs are aligned 1:1 with the input.
func MACD(closes []float64, fastWindow, slowWindow, signalWindow int) (macdLine, signalLine, histogram []float64) {
	fast := EMA(closes, fastWindow, optional.None[float64]())
	slow := EMA(closes, slowWindow, optional.None[float64]())

	macdLine = make([]float64, len(closes))
	for i := range macdLine {
		macdLine[i] = fast[i] - slow[i]
	}

	signalLine = EMA(macdLine, signalWindow, optional.None[float64]())

	histogram = make([]float64, len(closes))
	for i := range histogram {
		histogram[i] = macdLine[i] - signalLine[i]
	}

	return macdLine, signalLine, histogram
}
