package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

type PerformanceTestSuite struct {
	suite.Suite
}

func TestPerformanceSuite(t *testing.T) {
	suite.Run(t, new(PerformanceTestSuite))
}

func equityCurve(values []float64) []types.EquityPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	points := make([]types.EquityPoint, len(values))
	for i, v := range values {
		points[i] = types.EquityPoint{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Equity: v,
		}
	}

	return points
}

func (suite *PerformanceTestSuite) TestMaxDrawdown() {
	// Peak 120, trough 90: drawdown (120-90)/120 = 25%.
	peak, maxDD, _ := drawdownStats(equityCurve([]float64{100, 120, 90, 130}))

	suite.InDelta(130.0, peak, 1e-9)
	suite.InDelta(0.25, maxDD, 1e-9)
}

func (suite *PerformanceTestSuite) TestMaxDrawdownDuration() {
	// Underwater from hour 1 (peak) until recovery at hour 4.
	_, _, dur := drawdownStats(equityCurve([]float64{100, 120, 90, 110, 125}))
	suite.Equal(3*time.Hour, dur)

	// Still underwater at the final bar: episode runs to that bar.
	_, _, dur = drawdownStats(equityCurve([]float64{100, 120, 90, 95, 100}))
	suite.Equal(3*time.Hour, dur)

	// A strictly rising curve has no episode at all.
	_, _, dur = drawdownStats(equityCurve([]float64{100, 110, 120, 130}))
	suite.Equal(time.Duration(0), dur)
}

func (suite *PerformanceTestSuite) TestPeriodsPerYear() {
	// Annualization uses a flat 365-day year.
	bars := hourlyBars([]float64{100, 101, 102, 103})
	suite.InDelta(365.0*24.0, periodsPerYear(bars), 1e-9)

	// Too few bars to carry an interval: hourly fallback.
	suite.InDelta(365.0*24.0, periodsPerYear(nil), 1e-9)
}

func (suite *PerformanceTestSuite) TestTotalReturn() {
	config := types.DefaultBacktestConfig()
	config.Strategy = "x"
	config.Symbol = "y"

	curve := equityCurve([]float64{10000, 10500, 11000})
	bars := hourlyBars([]float64{100, 101, 102})

	m := CalculateMetrics(config, curve, nil, bars)

	suite.InDelta(0.10, m.TotalReturn, 1e-9)
	suite.InDelta(10000.0, m.InitialCapital, 1e-9)
	suite.InDelta(11000.0, m.FinalCapital, 1e-9)
	suite.InDelta(11000.0, m.PeakCapital, 1e-9)
}

func (suite *PerformanceTestSuite) TestSortinoInfiniteWithoutLosses() {
	config := types.DefaultBacktestConfig()

	// Strictly rising equity: no negative period returns, annual return
	// far above the risk-free rate.
	curve := equityCurve([]float64{10000, 10100, 10200, 10300})
	bars := hourlyBars([]float64{100, 101, 102, 103})

	m := CalculateMetrics(config, curve, nil, bars)

	suite.True(math.IsInf(m.SortinoRatio, 1))
}

func (suite *PerformanceTestSuite) TestProfitFactorInfiniteWithoutLosses() {
	trades := []types.Trade{
		{PnL: 100, Duration: time.Hour},
		{PnL: 50, Duration: time.Hour},
	}

	m := types.PerformanceMetrics{}
	fillTradeStats(&m, trades)

	suite.True(math.IsInf(m.ProfitFactor, 1))
	suite.Equal(2, m.WinningTrades)
	suite.Equal(0, m.LosingTrades)
	suite.InDelta(1.0, m.WinRate, 1e-9)
	suite.InDelta(75.0, m.AvgWin, 1e-9)
}

func (suite *PerformanceTestSuite) TestTradeStats() {
	trades := []types.Trade{
		{PnL: 100, Duration: 2 * time.Hour},
		{PnL: -40, Duration: 4 * time.Hour},
		{PnL: 60, Duration: 6 * time.Hour},
		{PnL: -20, Duration: 8 * time.Hour},
	}

	m := types.PerformanceMetrics{}
	fillTradeStats(&m, trades)

	suite.Equal(4, m.TotalTrades)
	suite.Equal(2, m.WinningTrades)
	suite.Equal(2, m.LosingTrades)
	suite.InDelta(0.5, m.WinRate, 1e-9)
	suite.InDelta(80.0, m.AvgWin, 1e-9)
	suite.InDelta(-30.0, m.AvgLoss, 1e-9)
	suite.InDelta(160.0/60.0, m.ProfitFactor, 1e-9)
	suite.Equal(5*time.Hour, m.AvgTradeDuration)
}

func (suite *PerformanceTestSuite) TestPercentileInterpolation() {
	values := []float64{10, 20, 30, 40, 50}

	suite.InDelta(10.0, percentile(values, 0), 1e-9)
	suite.InDelta(50.0, percentile(values, 100), 1e-9)
	suite.InDelta(30.0, percentile(values, 50), 1e-9)
	// rank = 0.05 * 4 = 0.2: between the first two order statistics.
	suite.InDelta(12.0, percentile(values, 5), 1e-9)
	suite.InDelta(0.0, percentile(nil, 5), 1e-9)
}

func (suite *PerformanceTestSuite) TestBetaOfIdenticalSeries() {
	returns := []float64{0.01, -0.02, 0.03, 0.01, -0.01}

	suite.InDelta(1.0, beta(returns, returns), 1e-9)
	suite.InDelta(0.0, beta(returns[:1], returns[:1]), 1e-9)

	flat := []float64{0, 0, 0, 0, 0}
	suite.InDelta(0.0, beta(returns, flat), 1e-9)
}

func TestGradeDeterministic(t *testing.T) {
	tests := []struct {
		name    string
		metrics types.PerformanceMetrics
		want    string
	}{
		{
			name: "top marks across all components",
			metrics: types.PerformanceMetrics{
				AnnualReturn: 0.25,
				SharpeRatio:  2.5,
				MaxDrawdown:  0.03,
				WinRate:      0.65,
				TotalTrades:  12,
			},
			want: "A+ (Excellent)",
		},
		{
			name: "strong but shallow trade sample",
			metrics: types.PerformanceMetrics{
				AnnualReturn: 0.25,
				SharpeRatio:  2.5,
				MaxDrawdown:  0.03,
				WinRate:      0.65,
				TotalTrades:  8,
			},
			want: "A+ (Excellent)", // 30+25+25+15 = 95
		},
		{
			name: "middling everything",
			metrics: types.PerformanceMetrics{
				AnnualReturn: 0.08,
				SharpeRatio:  0.8,
				MaxDrawdown:  0.20,
				WinRate:      0.45,
				TotalTrades:  3,
			},
			want: "C (Average)", // 20+15+15+10 = 60
		},
		{
			name: "no trades and flat returns",
			metrics: types.PerformanceMetrics{
				AnnualReturn: 0,
				SharpeRatio:  0,
				MaxDrawdown:  0.40,
				WinRate:      0,
				TotalTrades:  0,
			},
			want: "F (Poor)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(tt.metrics)
			assert.Equal(t, tt.want, got)

			// Determinism: repeated evaluation yields the same grade.
			assert.Equal(t, got, Grade(tt.metrics))
		})
	}
}

func (suite *PerformanceTestSuite) TestEmptyEquityCurve() {
	m := CalculateMetrics(types.DefaultBacktestConfig(), nil, nil, nil)
	suite.Equal(types.PerformanceMetrics{}, m)
}
