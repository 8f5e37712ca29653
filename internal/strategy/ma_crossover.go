package strategy

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

const StrategyNameMACrossover = "moving_average_crossover"

// MACrossoverParams holds the validated parameter set for the moving
// average crossover strategy.
type MACrossoverParams struct {
	FastPeriod int     `validate:"gt=0,ltfield=SlowPeriod"`
	SlowPeriod int     `validate:"gt=0"`
	StopLoss   float64 `validate:"gt=0,lt=1"`
	TakeProfit float64 `validate:"gt=0,lt=1"`
}

// MACrossover is a trend-following strategy: buy when the fast SMA crosses
// strictly above the slow SMA, sell when it crosses strictly below.
type MACrossover struct {
	params MACrossoverParams
}

// NewMACrossover builds the strategy from an untyped parameter map,
// applying defaults for absent keys. Construction fails on out-of-range
// values and on fast >= slow.
func NewMACrossover(params Parameters) (*MACrossover, error) {
	p := MACrossoverParams{
		FastPeriod: 10,
		SlowPeriod: 20,
		StopLoss:   0.02,
		TakeProfit: 0.05,
	}

	var err error

	if p.FastPeriod, err = params.IntValue("fast_period", p.FastPeriod); err != nil {
		return nil, err
	}

	if p.SlowPeriod, err = params.IntValue("slow_period", p.SlowPeriod); err != nil {
		return nil, err
	}

	if p.StopLoss, err = params.FloatValue("stop_loss", p.StopLoss); err != nil {
		return nil, err
	}

	if p.TakeProfit, err = params.FloatValue("take_profit", p.TakeProfit); err != nil {
		return nil, err
	}

	s := &MACrossover{params: p}
	if err := s.ValidateParameters(); err != nil {
		return nil, err
	}

	return s, nil
}

// Name returns the canonical registry name.
func (s *MACrossover) Name() string {
	return StrategyNameMACrossover
}

// Warmup returns the minimum bar count: the slow window.
func (s *MACrossover) Warmup() int {
	return s.params.SlowPeriod
}

// ValidateParameters checks the parameter constraints.
func (s *MACrossover) ValidateParameters() error {
	if err := validator.New().Struct(s.params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration,
			"invalid moving average crossover parameters", err)
	}

	return nil
}

// ComputeSignals emits a buy at bars where the fast SMA is above the slow
// SMA having been at or below it on the previous bar, and a sell on the
// mirror condition. Auxiliary columns carry both averages, their spread,
// and fixed-percentage stop/take levels on signal bars.
func (s *MACrossover) ComputeSignals(bars types.BarSeries) ([]types.SignalRow, error) {
	if len(bars) < s.Warmup() {
		return nil, errors.NewInsufficientDataErrorf(s.Warmup(), len(bars), s.Name(),
			"insufficient data for %s: %d bars < %d required", s.Name(), len(bars), s.Warmup())
	}

	closes := bars.Closes()

	fastMA := indicator.SMA(closes, s.params.FastPeriod)
	slowMA := indicator.SMA(closes, s.params.SlowPeriod)

	rows := make([]types.SignalRow, len(bars))

	for i := range bars {
		signal := types.SignalHold

		if i > 0 {
			bullish := fastMA[i] > slowMA[i] && fastMA[i-1] <= slowMA[i-1]
			bearish := fastMA[i] < slowMA[i] && fastMA[i-1] >= slowMA[i-1]

			switch {
			case bullish:
				signal = types.SignalBuy
			case bearish:
				signal = types.SignalSell
			}
		}

		spread := fastMA[i] - slowMA[i]

		rows[i] = types.SignalRow{
			Time:   bars[i].Time,
			Signal: signal,
			Indicators: map[string]float64{
				"fast_ma":           fastMA[i],
				"slow_ma":           slowMA[i],
				"ma_spread":         spread,
				"ma_spread_pct":     spread / slowMA[i] * 100,
				"stop_loss_level":   stopLossLevel(signal, bars[i].Close, s.params.StopLoss),
				"take_profit_level": takeProfitLevel(signal, bars[i].Close, s.params.TakeProfit),
			},
		}
	}

	return rows, nil
}

// stopLossLevel returns the fixed-percentage protective level for a signal
// bar: below the close for a buy, above for a sell, NaN on hold bars.
func stopLossLevel(signal types.SignalValue, close, stopLoss float64) float64 {
	switch signal {
	case types.SignalBuy:
		return close * (1 - stopLoss)
	case types.SignalSell:
		return close * (1 + stopLoss)
	default:
		return math.NaN()
	}
}

// takeProfitLevel is the profit target mirror of stopLossLevel.
func takeProfitLevel(signal types.SignalValue, close, takeProfit float64) float64 {
	switch signal {
	case types.SignalBuy:
		return close * (1 + takeProfit)
	case types.SignalSell:
		return close * (1 - takeProfit)
	default:
		return math.NaN()
	}
}
