package strategy

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

const StrategyNameMultiIndicator = "multi_indicator"

// ATR window and multiples for the dynamic protective levels.
const (
	multiATRWindow         = 14
	multiATRStopMultiple   = 2.0
	multiATRTargetMultiple = 3.0
)

// RSI extremes that veto entries regardless of confirmations.
const (
	multiRSIBuyCeiling = 80.0
	multiRSISellFloor  = 20.0
)

// MultiIndicatorParams holds the validated parameter set for the
// multi-indicator confirmation strategy.
type MultiIndicatorParams struct {
	RSIPeriod  int     `validate:"gt=0"`
	Oversold   float64 `validate:"gt=0,lt=50,ltfield=Overbought"`
	Overbought float64 `validate:"gt=50,lt=100"`

	MACDFast   int `validate:"gt=0,ltfield=MACDSlow"`
	MACDSlow   int `validate:"gt=0"`
	MACDSignal int `validate:"gt=0"`

	BBPeriod int     `validate:"gt=0"`
	BBStdDev float64 `validate:"gt=0"`

	VolumeThreshold  float64 `validate:"gte=1"`
	MinConfirmations int     `validate:"gte=1,lte=4"`

	StopLoss   float64 `validate:"gt=0,lt=1"`
	TakeProfit float64 `validate:"gt=0,lt=1"`
}

// MultiIndicator combines RSI, MACD and Bollinger Band edge signals with a
// volume-ratio confirmation. A signal fires only when enough sub-signals
// agree simultaneously, volume is elevated, and RSI is not at the opposite
// extreme.
type MultiIndicator struct {
	params MultiIndicatorParams
}

// NewMultiIndicator builds the strategy from an untyped parameter map,
// applying defaults for absent keys.
func NewMultiIndicator(params Parameters) (*MultiIndicator, error) {
	p := MultiIndicatorParams{
		RSIPeriod:        14,
		Oversold:         30,
		Overbought:       70,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		BBPeriod:         20,
		BBStdDev:         2.0,
		VolumeThreshold:  1.2,
		MinConfirmations: 2,
		StopLoss:         0.02,
		TakeProfit:       0.04,
	}

	var err error

	if p.RSIPeriod, err = params.IntValue("rsi_period", p.RSIPeriod); err != nil {
		return nil, err
	}

	if p.Oversold, err = params.FloatValue("rsi_oversold", p.Oversold); err != nil {
		return nil, err
	}

	if p.Overbought, err = params.FloatValue("rsi_overbought", p.Overbought); err != nil {
		return nil, err
	}

	if p.MACDFast, err = params.IntValue("macd_fast", p.MACDFast); err != nil {
		return nil, err
	}

	if p.MACDSlow, err = params.IntValue("macd_slow", p.MACDSlow); err != nil {
		return nil, err
	}

	if p.MACDSignal, err = params.IntValue("macd_signal", p.MACDSignal); err != nil {
		return nil, err
	}

	if p.BBPeriod, err = params.IntValue("bb_period", p.BBPeriod); err != nil {
		return nil, err
	}

	if p.BBStdDev, err = params.FloatValue("bb_std", p.BBStdDev); err != nil {
		return nil, err
	}

	if p.VolumeThreshold, err = params.FloatValue("volume_threshold", p.VolumeThreshold); err != nil {
		return nil, err
	}

	if p.MinConfirmations, err = params.IntValue("min_confirmations", p.MinConfirmations); err != nil {
		return nil, err
	}

	if p.StopLoss, err = params.FloatValue("stop_loss", p.StopLoss); err != nil {
		return nil, err
	}

	if p.TakeProfit, err = params.FloatValue("take_profit", p.TakeProfit); err != nil {
		return nil, err
	}

	s := &MultiIndicator{params: p}
	if err := s.ValidateParameters(); err != nil {
		return nil, err
	}

	return s, nil
}

// Name returns the canonical registry name.
func (s *MultiIndicator) Name() string {
	return StrategyNameMultiIndicator
}

// Warmup returns the minimum bar count: the slowest indicator window plus
// the MACD signal window.
func (s *MultiIndicator) Warmup() int {
	warmup := s.params.MACDSlow

	if s.params.BBPeriod > warmup {
		warmup = s.params.BBPeriod
	}

	if s.params.RSIPeriod+1 > warmup {
		warmup = s.params.RSIPeriod + 1
	}

	return warmup + s.params.MACDSignal
}

// ValidateParameters checks the parameter constraints.
func (s *MultiIndicator) ValidateParameters() error {
	if err := validator.New().Struct(s.params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration,
			"invalid multi indicator parameters", err)
	}

	return nil
}

// ComputeSignals evaluates four bullish and four bearish sub-signals per
// bar (RSI threshold cross, MACD line cross, band touch with RSI bias,
// MACD histogram momentum), counts agreements, and fires only past the
// configured minimum with volume confirmation. Signal strength is the
// confirmation count. Protective levels come in ATR-scaled and
// fixed-percentage variants.
func (s *MultiIndicator) ComputeSignals(bars types.BarSeries) ([]types.SignalRow, error) {
	if len(bars) < s.Warmup() {
		return nil, errors.NewInsufficientDataErrorf(s.Warmup(), len(bars), s.Name(),
			"insufficient data for %s: %d bars < %d required", s.Name(), len(bars), s.Warmup())
	}

	closes := bars.Closes()
	highs := bars.Highs()
	lows := bars.Lows()
	volumes := bars.Volumes()

	rsi := indicator.RSI(closes, s.params.RSIPeriod)
	macdLine, signalLine, histogram := indicator.MACD(
		closes, s.params.MACDFast, s.params.MACDSlow, s.params.MACDSignal)
	upper, middle, lower := indicator.BollingerBands(closes, s.params.BBPeriod, s.params.BBStdDev)
	atr := indicator.ATR(highs, lows, closes, multiATRWindow)

	volumeSMA := indicator.SMA(volumes, 20)

	rows := make([]types.SignalRow, len(bars))

	for i := range bars {
		close := closes[i]

		var (
			rsiBullish, rsiBearish   bool
			macdBullish, macdBearish bool
			momBullish, momBearish   bool
		)

		if i > 0 {
			rsiBullish = rsi[i] > s.params.Oversold && rsi[i-1] <= s.params.Oversold
			rsiBearish = rsi[i] < s.params.Overbought && rsi[i-1] >= s.params.Overbought

			macdBullish = macdLine[i] > signalLine[i] && macdLine[i-1] <= signalLine[i-1]
			macdBearish = macdLine[i] < signalLine[i] && macdLine[i-1] >= signalLine[i-1]

			momBullish = histogram[i] > histogram[i-1]
			momBearish = histogram[i] < histogram[i-1]
		}

		bbBullish := close <= lower[i]*(1+bandTouchTolerance) && rsi[i] < 40
		bbBearish := close >= upper[i]*(1-bandTouchTolerance) && rsi[i] > 60

		bullishCount := countTrue(rsiBullish, macdBullish, bbBullish, momBullish)
		bearishCount := countTrue(rsiBearish, macdBearish, bbBearish, momBearish)

		volumeRatio := volumes[i] / volumeSMA[i]
		volumeConfirmed := volumeRatio > s.params.VolumeThreshold

		signal := types.SignalHold

		switch {
		case bullishCount >= s.params.MinConfirmations && volumeConfirmed && rsi[i] < multiRSIBuyCeiling:
			signal = types.SignalBuy
		case bearishCount >= s.params.MinConfirmations && volumeConfirmed && rsi[i] > multiRSISellFloor:
			signal = types.SignalSell
		}

		strength := 0.0

		switch signal {
		case types.SignalBuy:
			strength = float64(bullishCount)
		case types.SignalSell:
			strength = float64(bearishCount)
		}

		stopATR := math.NaN()
		targetATR := math.NaN()

		switch signal {
		case types.SignalBuy:
			stopATR = close - atr[i]*multiATRStopMultiple
			targetATR = close + atr[i]*multiATRTargetMultiple
		case types.SignalSell:
			stopATR = close + atr[i]*multiATRStopMultiple
			targetATR = close - atr[i]*multiATRTargetMultiple
		}

		rows[i] = types.SignalRow{
			Time:   bars[i].Time,
			Signal: signal,
			Indicators: map[string]float64{
				"rsi":               rsi[i],
				"macd":              macdLine[i],
				"macd_signal":       signalLine[i],
				"macd_histogram":    histogram[i],
				"bb_upper":          upper[i],
				"bb_middle":         middle[i],
				"bb_lower":          lower[i],
				"bb_position":       (close - lower[i]) / (upper[i] - lower[i]),
				"atr":               atr[i],
				"volume_ratio":      volumeRatio,
				"bullish_count":     float64(bullishCount),
				"bearish_count":     float64(bearishCount),
				"signal_strength":   strength,
				"stop_loss_level":   stopATR,
				"take_profit_level": targetATR,
				"stop_loss_fixed":   stopLossLevel(signal, close, s.params.StopLoss),
				"take_profit_fixed": takeProfitLevel(signal, close, s.params.TakeProfit),
			},
		}
	}

	return rows, nil
}

func countTrue(flags ...bool) int {
	n := 0

	for _, f := range flags {
		if f {
			n++
		}
	}

	return n
}
