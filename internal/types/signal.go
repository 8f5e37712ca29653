package types

import "time"

// SignalValue is a directional trading intent.
type SignalValue int

const (
	// SignalSell tells the simulator to open a short (or close a long).
	SignalSell SignalValue = -1
	// SignalHold tells the simulator to do nothing.
	SignalHold SignalValue = 0
	// SignalBuy tells the simulator to open a long (or close a short).
	SignalBuy SignalValue = 1
)

// String returns the human-readable event name for the signal.
func (v SignalValue) String() string {
	switch v {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// IsValid reports whether the value is one of sell/hold/buy.
func (v SignalValue) IsValid() bool {
	return v == SignalSell || v == SignalHold || v == SignalBuy
}

// SignalRow is one row of a strategy's output table, aligned 1:1 with the
// input bar at the same index. Indicators carries every indicator and
// auxiliary column the strategy variant defines at that timestamp; values
// below an indicator's lookback window are NaN.
type SignalRow struct {
	Time       time.Time
	Signal     SignalValue
	Indicators map[string]float64
}

// Indicator returns the named indicator column value and whether it exists.
func (r SignalRow) Indicator(name string) (float64, bool) {
	v, ok := r.Indicators[name]

	return v, ok
}
