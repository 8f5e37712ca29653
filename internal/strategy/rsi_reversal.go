package strategy

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

const StrategyNameRSIReversal = "rsi_reversal"

// Numeric encodings for the categorical diagnostic columns. Categorical
// values are encoded as floats so every auxiliary column fits the uniform
// indicator map.
const (
	ZoneOversold   = -1.0
	ZoneNeutral    = 0.0
	ZoneOverbought = 1.0

	DivergenceBearish = -1.0
	DivergenceNone    = 0.0
	DivergenceBullish = 1.0
)

// RSIReversalParams holds the validated parameter set for the RSI reversal
// strategy.
type RSIReversalParams struct {
	RSIPeriod  int     `validate:"gt=0"`
	Oversold   float64 `validate:"gt=0,lt=50,ltfield=Overbought"`
	Overbought float64 `validate:"gt=50,lt=100"`
	StopLoss   float64 `validate:"gt=0,lt=1"`
	TakeProfit float64 `validate:"gt=0,lt=1"`
}

// RSIReversal is a mean-reversion strategy: buy when RSI crosses up
// through the oversold threshold, sell when it crosses down through the
// overbought threshold.
type RSIReversal struct {
	params RSIReversalParams
}

// NewRSIReversal builds the strategy from an untyped parameter map,
// applying defaults for absent keys.
func NewRSIReversal(params Parameters) (*RSIReversal, error) {
	p := RSIReversalParams{
		RSIPeriod:  14,
		Oversold:   30,
		Overbought: 70,
		StopLoss:   0.03,
		TakeProfit: 0.06,
	}

	var err error

	if p.RSIPeriod, err = params.IntValue("rsi_period", p.RSIPeriod); err != nil {
		return nil, err
	}

	if p.Oversold, err = params.FloatValue("oversold_threshold", p.Oversold); err != nil {
		return nil, err
	}

	if p.Overbought, err = params.FloatValue("overbought_threshold", p.Overbought); err != nil {
		return nil, err
	}

	if p.StopLoss, err = params.FloatValue("stop_loss", p.StopLoss); err != nil {
		return nil, err
	}

	if p.TakeProfit, err = params.FloatValue("take_profit", p.TakeProfit); err != nil {
		return nil, err
	}

	s := &RSIReversal{params: p}
	if err := s.ValidateParameters(); err != nil {
		return nil, err
	}

	return s, nil
}

// Name returns the canonical registry name.
func (s *RSIReversal) Name() string {
	return StrategyNameRSIReversal
}

// Warmup returns the minimum bar count: the RSI window plus one delta bar.
func (s *RSIReversal) Warmup() int {
	return s.params.RSIPeriod + 1
}

// ValidateParameters checks the parameter constraints.
func (s *RSIReversal) ValidateParameters() error {
	if err := validator.New().Struct(s.params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration,
			"invalid rsi reversal parameters", err)
	}

	return nil
}

// ComputeSignals emits threshold-crossing signals and diagnostic columns:
// the RSI zone, a simple momentum-divergence flag, and fixed-percentage
// stop/take levels on signal bars.
func (s *RSIReversal) ComputeSignals(bars types.BarSeries) ([]types.SignalRow, error) {
	if len(bars) < s.Warmup() {
		return nil, errors.NewInsufficientDataErrorf(s.Warmup(), len(bars), s.Name(),
			"insufficient data for %s: %d bars < %d required", s.Name(), len(bars), s.Warmup())
	}

	closes := bars.Closes()
	rsi := indicator.RSI(closes, s.params.RSIPeriod)

	rows := make([]types.SignalRow, len(bars))

	for i := range bars {
		signal := types.SignalHold

		if i > 0 {
			buy := rsi[i] > s.params.Oversold && rsi[i-1] <= s.params.Oversold
			sell := rsi[i] < s.params.Overbought && rsi[i-1] >= s.params.Overbought

			switch {
			case buy:
				signal = types.SignalBuy
			case sell:
				signal = types.SignalSell
			}
		}

		// 5-bar momentum for the divergence diagnostic.
		priceMomentum := math.NaN()
		rsiMomentum := math.NaN()

		if i >= 5 {
			priceMomentum = (closes[i] - closes[i-5]) / closes[i-5]
			rsiMomentum = rsi[i] - rsi[i-5]
		}

		divergence := DivergenceNone

		switch {
		case priceMomentum < 0 && rsiMomentum > 0 && rsi[i] < 40:
			divergence = DivergenceBullish
		case priceMomentum > 0 && rsiMomentum < 0 && rsi[i] > 60:
			divergence = DivergenceBearish
		}

		zone := ZoneNeutral

		switch {
		case rsi[i] <= s.params.Oversold:
			zone = ZoneOversold
		case rsi[i] >= s.params.Overbought:
			zone = ZoneOverbought
		}

		rows[i] = types.SignalRow{
			Time:   bars[i].Time,
			Signal: signal,
			Indicators: map[string]float64{
				"rsi":               rsi[i],
				"rsi_zone":          zone,
				"price_momentum":    priceMomentum,
				"rsi_momentum":      rsiMomentum,
				"divergence":        divergence,
				"stop_loss_level":   stopLossLevel(signal, bars[i].Close, s.params.StopLoss),
				"take_profit_level": takeProfitLevel(signal, bars[i].Close, s.params.TakeProfit),
			},
		}
	}

	return rows, nil
}
