package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a simulated position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Trade is a fully realized round trip, created when the simulator closes a
// position. Immutable thereafter. Entry and exit prices are slippage-adjusted
// fill prices, not raw bar closes.
type Trade struct {
	EntryTime      time.Time `yaml:"entry_time" csv:"entry_time"`
	ExitTime       time.Time `yaml:"exit_time" csv:"exit_time"`
	Symbol         string    `yaml:"symbol" csv:"symbol"`
	Side           Side      `yaml:"side" csv:"side"`
	EntryPrice     float64   `yaml:"entry_price" csv:"entry_price"`
	ExitPrice      float64   `yaml:"exit_price" csv:"exit_price"`
	Quantity       float64   `yaml:"quantity" csv:"quantity"`
	PnL            float64   `yaml:"pnl" csv:"pnl"`
	CommissionPaid float64   `yaml:"commission_paid" csv:"commission_paid"`
	Duration       time.Duration `yaml:"duration" csv:"duration"`
}

// CalculatePnL computes the realized profit of a round trip using decimal
// arithmetic to avoid float accumulation error.
// For a long: qty * (exit - entry). For a short: qty * (entry - exit).
func CalculatePnL(side Side, quantity, entryPrice, exitPrice float64) float64 {
	qty := decimal.NewFromFloat(quantity)
	entry := decimal.NewFromFloat(entryPrice)
	exit := decimal.NewFromFloat(exitPrice)

	var result decimal.Decimal
	if side == SideShort {
		result = qty.Mul(entry.Sub(exit))
	} else {
		result = qty.Mul(exit.Sub(entry))
	}

	pnl, _ := result.Float64()

	return pnl
}

// EquityPoint is the total account equity (cash plus mark-to-market position
// value) at one bar's close. One point exists for every bar consumed.
type EquityPoint struct {
	Time   time.Time `yaml:"time"`
	Equity float64   `yaml:"equity"`
}

// DrawdownPoint is the fractional decline of equity from its running peak at
// one bar's close. Zero when equity is at a new peak.
type DrawdownPoint struct {
	Time     time.Time `yaml:"time"`
	Drawdown float64   `yaml:"drawdown"`
}
