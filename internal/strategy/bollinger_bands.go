package strategy

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

const StrategyNameBollingerBands = "bollinger_bands"

// Band-touch tolerance: a close within 0.1% of a band counts as touching.
const bandTouchTolerance = 0.001

// Numeric encodings for the band zone diagnostic column.
const (
	BandZoneBelowLower = -2.0
	BandZoneLowerHalf  = -1.0
	BandZoneUpperHalf  = 1.0
	BandZoneAboveUpper = 2.0
)

// BollingerBandsParams holds the validated parameter set for the Bollinger
// Bands strategy.
type BollingerBandsParams struct {
	BBPeriod   int     `validate:"gt=0"`
	BBStdDev   float64 `validate:"gt=0"`
	RSIPeriod  int     `validate:"gt=0"`
	Oversold   float64 `validate:"gt=0,lt=50,ltfield=Overbought"`
	Overbought float64 `validate:"gt=50,lt=100"`
	StopLoss   float64 `validate:"gt=0,lt=1"`
	TakeProfit float64 `validate:"gt=0,lt=1"`
}

// BollingerBands is a mean-reversion strategy that requires RSI
// confirmation: buy on a lower-band touch while RSI is oversold, sell on
// an upper-band touch while RSI is overbought.
type BollingerBands struct {
	params BollingerBandsParams
}

// NewBollingerBands builds the strategy from an untyped parameter map,
// applying defaults for absent keys.
func NewBollingerBands(params Parameters) (*BollingerBands, error) {
	p := BollingerBandsParams{
		BBPeriod:   20,
		BBStdDev:   2.0,
		RSIPeriod:  14,
		Oversold:   30,
		Overbought: 70,
		StopLoss:   0.025,
		TakeProfit: 0.05,
	}

	var err error

	if p.BBPeriod, err = params.IntValue("bb_period", p.BBPeriod); err != nil {
		return nil, err
	}

	if p.BBStdDev, err = params.FloatValue("bb_std", p.BBStdDev); err != nil {
		return nil, err
	}

	if p.RSIPeriod, err = params.IntValue("rsi_period", p.RSIPeriod); err != nil {
		return nil, err
	}

	if p.Oversold, err = params.FloatValue("rsi_oversold", p.Oversold); err != nil {
		return nil, err
	}

	if p.Overbought, err = params.FloatValue("rsi_overbought", p.Overbought); err != nil {
		return nil, err
	}

	if p.StopLoss, err = params.FloatValue("stop_loss", p.StopLoss); err != nil {
		return nil, err
	}

	if p.TakeProfit, err = params.FloatValue("take_profit", p.TakeProfit); err != nil {
		return nil, err
	}

	s := &BollingerBands{params: p}
	if err := s.ValidateParameters(); err != nil {
		return nil, err
	}

	return s, nil
}

// Name returns the canonical registry name.
func (s *BollingerBands) Name() string {
	return StrategyNameBollingerBands
}

// Warmup returns the minimum bar count: the larger of the band window and
// the RSI window plus one.
func (s *BollingerBands) Warmup() int {
	if s.params.BBPeriod > s.params.RSIPeriod+1 {
		return s.params.BBPeriod
	}

	return s.params.RSIPeriod + 1
}

// ValidateParameters checks the parameter constraints.
func (s *BollingerBands) ValidateParameters() error {
	if err := validator.New().Struct(s.params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration,
			"invalid bollinger bands parameters", err)
	}

	return nil
}

// ComputeSignals emits band-touch signals gated by RSI, plus volatility
// diagnostics: band width, a squeeze flag (width below its 20-bar mean
// minus one 20-bar stddev) and an expansion flag (width growing out of a
// squeeze). The diagnostics never gate the signal. The take-profit level
// on signal bars targets the middle band.
func (s *BollingerBands) ComputeSignals(bars types.BarSeries) ([]types.SignalRow, error) {
	if len(bars) < s.Warmup() {
		return nil, errors.NewInsufficientDataErrorf(s.Warmup(), len(bars), s.Name(),
			"insufficient data for %s: %d bars < %d required", s.Name(), len(bars), s.Warmup())
	}

	closes := bars.Closes()

	upper, middle, lower := indicator.BollingerBands(closes, s.params.BBPeriod, s.params.BBStdDev)
	rsi := indicator.RSI(closes, s.params.RSIPeriod)

	width := make([]float64, len(bars))
	for i := range width {
		width[i] = (upper[i] - lower[i]) / middle[i]
	}

	widthMean := indicator.SMA(width, 20)
	widthStdDev := indicator.RollingStdDev(width, 20)

	squeeze := make([]bool, len(bars))
	for i := range squeeze {
		squeeze[i] = width[i] < widthMean[i]-widthStdDev[i]
	}

	rows := make([]types.SignalRow, len(bars))

	for i := range bars {
		close := closes[i]

		signal := types.SignalHold

		buy := close <= lower[i]*(1+bandTouchTolerance) && rsi[i] < s.params.Oversold
		sell := close >= upper[i]*(1-bandTouchTolerance) && rsi[i] > s.params.Overbought

		switch {
		case buy:
			signal = types.SignalBuy
		case sell:
			signal = types.SignalSell
		}

		expansion := i > 0 && width[i] > width[i-1] && squeeze[i-1]

		zone := BandZoneLowerHalf

		switch {
		case close < lower[i]:
			zone = BandZoneBelowLower
		case close > upper[i]:
			zone = BandZoneAboveUpper
		case close > middle[i]:
			zone = BandZoneUpperHalf
		}

		takeProfit := math.NaN()
		if signal != types.SignalHold {
			takeProfit = middle[i]
		}

		rows[i] = types.SignalRow{
			Time:   bars[i].Time,
			Signal: signal,
			Indicators: map[string]float64{
				"bb_upper":                upper[i],
				"bb_middle":               middle[i],
				"bb_lower":                lower[i],
				"rsi":                     rsi[i],
				"bb_position":             (close - lower[i]) / (upper[i] - lower[i]),
				"bb_width":                width[i],
				"bb_squeeze":              boolColumn(squeeze[i]),
				"bb_expansion":            boolColumn(expansion),
				"bb_zone":                 zone,
				"mean_reversion_strength": math.Abs(close-middle[i]) / (upper[i] - middle[i]),
				"stop_loss_level":         stopLossLevel(signal, close, s.params.StopLoss),
				"take_profit_level":       takeProfit,
			},
		}
	}

	return rows, nil
}

func boolColumn(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
