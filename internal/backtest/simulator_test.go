package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

type SimulatorTestSuite struct {
	suite.Suite

	logger *logger.Logger
	config types.BacktestConfig
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (suite *SimulatorTestSuite) SetupTest() {
	suite.logger = logger.NewTestLogger()

	suite.config = types.DefaultBacktestConfig()
	suite.config.Strategy = "moving_average_crossover"
	suite.config.Symbol = "BTCUSDT"
}

func hourlyBars(closes []float64) types.BarSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make(types.BarSeries, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Symbol: "BTCUSDT",
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}

	return bars
}

func holdSignals(bars types.BarSeries) []types.SignalRow {
	rows := make([]types.SignalRow, len(bars))
	for i, b := range bars {
		rows[i] = types.SignalRow{Time: b.Time, Signal: types.SignalHold, Indicators: nil}
	}

	return rows
}

func (suite *SimulatorTestSuite) newSimulator() *Simulator {
	sim, err := NewSimulator(suite.config, suite.logger)
	suite.Require().NoError(err)

	return sim
}

func (suite *SimulatorTestSuite) TestRejectsEmptyBars() {
	sim := suite.newSimulator()

	_, err := sim.Run(nil, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoData))
}

func (suite *SimulatorTestSuite) TestRejectsMisalignedSignals() {
	sim := suite.newSimulator()
	bars := hourlyBars([]float64{100, 101, 102})

	_, err := sim.Run(bars, holdSignals(bars)[:2])
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSignalMisaligned))
}

func (suite *SimulatorTestSuite) TestRejectsInvalidConfig() {
	config := suite.config
	config.InitialCapital = -1

	_, err := NewSimulator(config, suite.logger)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func (suite *SimulatorTestSuite) TestEquityRecordedEveryBar() {
	sim := suite.newSimulator()
	bars := hourlyBars([]float64{100, 101, 102, 103, 104})

	result, err := sim.Run(bars, holdSignals(bars))
	suite.Require().NoError(err)

	suite.Len(result.EquityCurve, len(bars))
	suite.Len(result.DrawdownCurve, len(bars))
	suite.Empty(result.Trades)

	for _, p := range result.EquityCurve {
		suite.Equal(suite.config.InitialCapital, p.Equity)
	}
}

func (suite *SimulatorTestSuite) TestLongRoundTripClosedForm() {
	bars := hourlyBars([]float64{100, 100, 100, 100, 100, 100, 110})
	signals := holdSignals(bars)
	signals[2].Signal = types.SignalBuy

	sim := suite.newSimulator()

	result, err := sim.Run(bars, signals)
	suite.Require().NoError(err)
	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]

	c := suite.config.CommissionRate
	s := suite.config.SlippageRate
	notional := suite.config.InitialCapital

	entryPrice := 100 * (1 + s)
	exitPrice := 110 * (1 - s)
	quantity := notional / entryPrice

	suite.Equal(types.SideLong, trade.Side)
	suite.InDelta(entryPrice, trade.EntryPrice, 1e-9)
	suite.InDelta(exitPrice, trade.ExitPrice, 1e-9)
	suite.InDelta(quantity, trade.Quantity, 1e-9)
	suite.InDelta(quantity*(exitPrice-entryPrice), trade.PnL, 1e-6)
	suite.InDelta(notional*c+quantity*exitPrice*c, trade.CommissionPaid, 1e-9)

	// Forced close at the final bar: entry at bar 2, exit at bar 6.
	suite.Equal(bars[2].Time, trade.EntryTime)
	suite.Equal(bars[6].Time, trade.ExitTime)
	suite.Equal(4*time.Hour, trade.Duration)
}

func (suite *SimulatorTestSuite) TestCapitalConservation() {
	// Final capital must equal initial plus the sum over trades of
	// (pnl - commissions), to float tolerance.
	bars := hourlyBars([]float64{100, 105, 98, 102, 110, 95, 101, 99, 104, 108})
	signals := holdSignals(bars)
	signals[1].Signal = types.SignalBuy
	signals[3].Signal = types.SignalSell
	signals[6].Signal = types.SignalBuy
	signals[8].Signal = types.SignalSell

	sim := suite.newSimulator()

	result, err := sim.Run(bars, signals)
	suite.Require().NoError(err)
	suite.Require().NotEmpty(result.Trades)

	expected := suite.config.InitialCapital
	for _, t := range result.Trades {
		expected += t.PnL - t.CommissionPaid
	}

	suite.InDelta(expected, result.Metrics.FinalCapital, 1e-6)
	suite.InDelta(result.Metrics.FinalCapital,
		result.EquityCurve[len(result.EquityCurve)-1].Equity, 1e-9)
}

func (suite *SimulatorTestSuite) TestShortProfitsFromFall() {
	bars := hourlyBars([]float64{100, 100, 90, 80, 70})
	signals := holdSignals(bars)
	signals[1].Signal = types.SignalSell

	sim := suite.newSimulator()

	result, err := sim.Run(bars, signals)
	suite.Require().NoError(err)
	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(types.SideShort, trade.Side)
	suite.Positive(trade.PnL)
	suite.Greater(result.Metrics.FinalCapital, suite.config.InitialCapital)

	// Equity must rise monotonically after the short entry.
	curve := result.EquityCurve
	for i := 2; i < len(curve); i++ {
		suite.Greater(curve[i].Equity, curve[i-1].Equity)
	}
}

func (suite *SimulatorTestSuite) TestSellWhileLongFlipsToShort() {
	bars := hourlyBars([]float64{100, 100, 105, 103, 101, 100})
	signals := holdSignals(bars)
	signals[1].Signal = types.SignalBuy
	signals[3].Signal = types.SignalSell

	sim := suite.newSimulator()

	result, err := sim.Run(bars, signals)
	suite.Require().NoError(err)
	suite.Require().Len(result.Trades, 2)

	suite.Equal(types.SideLong, result.Trades[0].Side)
	suite.Equal(types.SideShort, result.Trades[1].Side)
	suite.Equal(bars[3].Time, result.Trades[0].ExitTime)
	suite.Equal(bars[3].Time, result.Trades[1].EntryTime)
}

func (suite *SimulatorTestSuite) TestRepeatedSignalsIgnoredInPosition() {
	bars := hourlyBars([]float64{100, 100, 101, 102, 103, 104})
	signals := holdSignals(bars)
	signals[1].Signal = types.SignalBuy
	signals[3].Signal = types.SignalBuy // already long, must be a no-op

	sim := suite.newSimulator()

	result, err := sim.Run(bars, signals)
	suite.Require().NoError(err)
	suite.Len(result.Trades, 1)
}

func (suite *SimulatorTestSuite) TestProgressCallback() {
	bars := hourlyBars([]float64{100, 101, 102})
	sim := suite.newSimulator()

	var calls []int

	sim.OnProgress = func(processed, total int) {
		suite.Equal(len(bars), total)
		calls = append(calls, processed)
	}

	_, err := sim.Run(bars, holdSignals(bars))
	suite.Require().NoError(err)
	suite.Equal([]int{1, 2, 3}, calls)
}

func (suite *SimulatorTestSuite) TestResultMetadata() {
	bars := hourlyBars([]float64{100, 101, 102})
	sim := suite.newSimulator()

	result, err := sim.Run(bars, holdSignals(bars))
	suite.Require().NoError(err)

	suite.NotEmpty(result.ID)
	suite.NotEmpty(result.Grade)
	suite.Equal(bars[0].Time, result.StartTime)
	suite.Equal(bars[2].Time, result.EndTime)
	suite.Equal(suite.config, result.Config)
}
