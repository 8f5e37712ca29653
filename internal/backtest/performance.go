package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

const (
	// yearDuration converts elapsed wall time to calendar years for
	// compound annual return.
	yearDuration = time.Duration(365.25 * 24 * float64(time.Hour))

	// annualizationYear is the flat 365-day year used to scale period
	// statistics (volatility, downside deviation) to annual terms.
	annualizationYear = 365 * 24 * time.Hour
)

// CalculateMetrics derives the full performance statistic set from an
// equity curve, a realized trade list and the bar series the run consumed.
// It is a pure function: identical inputs always produce identical
// metrics.
func CalculateMetrics(config types.BacktestConfig, equity []types.EquityPoint, trades []types.Trade, bars types.BarSeries) types.PerformanceMetrics {
	m := types.PerformanceMetrics{}

	if len(equity) == 0 {
		return m
	}

	initial := config.InitialCapital
	final := equity[len(equity)-1].Equity

	m.InitialCapital = initial
	m.FinalCapital = final
	m.TotalReturn = (final - initial) / initial

	years := equity[len(equity)-1].Time.Sub(equity[0].Time).Seconds() / yearDuration.Seconds()
	if years > 0 {
		m.AnnualReturn = math.Pow(1+m.TotalReturn, 1/years) - 1
	} else {
		m.AnnualReturn = m.TotalReturn
	}

	// Period returns and annualization factor from the bar spacing.
	returns := periodReturns(equity)
	periodsPerYear := periodsPerYear(bars)

	m.Volatility = sampleStdDev(returns) * math.Sqrt(periodsPerYear)

	if m.Volatility > 0 {
		m.SharpeRatio = (m.AnnualReturn - config.RiskFreeRate) / m.Volatility
	}

	m.SortinoRatio = sortinoRatio(returns, m.AnnualReturn, config.RiskFreeRate, periodsPerYear)

	peak, maxDD, maxDDDur := drawdownStats(equity)
	m.PeakCapital = peak
	m.MaxDrawdown = maxDD
	m.MaxDrawdownDuration = maxDDDur

	if m.MaxDrawdown > 0 {
		m.CalmarRatio = m.AnnualReturn / m.MaxDrawdown
	}

	fillTradeStats(&m, trades)

	m.VaR95 = percentile(returns, 5)
	m.Beta = beta(returns, periodReturnsOf(bars.Closes()))

	return m
}

func periodReturns(equity []types.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}

		returns = append(returns, (equity[i].Equity-prev)/prev)
	}

	return returns
}

func periodReturnsOf(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}

		returns = append(returns, (values[i]-values[i-1])/values[i-1])
	}

	return returns
}

// periodsPerYear derives the annualization factor from the median bar
// spacing. Falls back to hourly bars when the series is too short to
// carry an interval.
func periodsPerYear(bars types.BarSeries) float64 {
	interval := bars.Interval()
	if interval <= 0 {
		interval = time.Hour
	}

	return annualizationYear.Seconds() / interval.Seconds()
}

// sortinoRatio uses downside deviation (stddev of negative period returns,
// annualized) as its denominator. With no negative returns it is +Inf when
// the annual return beats the risk-free rate, else 0.
func sortinoRatio(returns []float64, annualReturn, riskFreeRate, periodsPerYear float64) float64 {
	negative := make([]float64, 0, len(returns))

	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}

	if len(negative) == 0 {
		if annualReturn > riskFreeRate {
			return math.Inf(1)
		}

		return 0
	}

	downside := sampleStdDev(negative) * math.Sqrt(periodsPerYear)
	if downside == 0 {
		return 0
	}

	return (annualReturn - riskFreeRate) / downside
}

// drawdownStats walks the equity curve once, tracking the running peak,
// the deepest fractional drawdown, and the longest drawdown episode. An
// episode runs from the bar equity last peaked until it reclaims that
// peak, or until the final bar when still under water.
func drawdownStats(equity []types.EquityPoint) (peak, maxDD float64, maxDur time.Duration) {
	peak = equity[0].Equity
	peakTime := equity[0].Time
	underwater := false

	for _, p := range equity[1:] {
		if p.Equity >= peak {
			// Reclaiming the peak closes the episode at this bar.
			if underwater {
				if dur := p.Time.Sub(peakTime); dur > maxDur {
					maxDur = dur
				}

				underwater = false
			}

			peak = p.Equity
			peakTime = p.Time

			continue
		}

		underwater = true

		dd := (peak - p.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}

		// Open episode: extends through the final bar when never
		// recovered.
		if dur := p.Time.Sub(peakTime); dur > maxDur {
			maxDur = dur
		}
	}

	return peak, maxDD, maxDur
}

func fillTradeStats(m *types.PerformanceMetrics, trades []types.Trade) {
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var (
		grossProfit, grossLoss float64
		winSum, lossSum        float64
		totalDuration          time.Duration
	)

	for _, t := range trades {
		totalDuration += t.Duration

		if t.PnL > 0 {
			m.WinningTrades++
			winSum += t.PnL
			grossProfit += t.PnL
		} else {
			m.LosingTrades++
			lossSum += t.PnL
			grossLoss += -t.PnL
		}
	}

	m.WinRate = float64(m.WinningTrades) / float64(len(trades))

	if m.WinningTrades > 0 {
		m.AvgWin = winSum / float64(m.WinningTrades)
	}

	if m.LosingTrades > 0 {
		m.AvgLoss = lossSum / float64(m.LosingTrades)
	}

	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	} else {
		m.ProfitFactor = math.Inf(1)
	}

	m.AvgTradeDuration = totalDuration / time.Duration(len(trades))
}

// percentile returns the p-th percentile of values using linear
// interpolation between adjacent order statistics. Returns 0 for empty
// input.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))

	if lo == hi {
		return sorted[lo]
	}

	frac := rank - float64(lo)

	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// beta regresses the run's period returns against benchmark returns (the
// close-price series when no external benchmark is supplied). Returns 0
// when fewer than two aligned samples exist or the benchmark has no
// variance.
func beta(returns, benchmark []float64) float64 {
	n := len(returns)
	if len(benchmark) < n {
		n = len(benchmark)
	}

	if n < 2 {
		return 0
	}

	r := returns[:n]
	b := benchmark[:n]

	meanR := mean(r)
	meanB := mean(b)

	var cov, varB float64

	for i := 0; i < n; i++ {
		cov += (r[i] - meanR) * (b[i] - meanB)
		varB += (b[i] - meanB) * (b[i] - meanB)
	}

	cov /= float64(n - 1)
	varB /= float64(n - 1)

	if varB == 0 {
		return 0
	}

	return cov / varB
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

// Grade converts metrics to a deterministic letter grade from four
// weighted sub-scores: annual return (30), Sharpe ratio (25), max
// drawdown (25) and win rate with a minimum sample size (20). The bands
// are fixed constants.
func Grade(m types.PerformanceMetrics) string {
	score := 0

	switch {
	case m.AnnualReturn > 0.20:
		score += 30
	case m.AnnualReturn > 0.10:
		score += 25
	case m.AnnualReturn > 0.05:
		score += 20
	case m.AnnualReturn > 0:
		score += 15
	}

	switch {
	case m.SharpeRatio > 2.0:
		score += 25
	case m.SharpeRatio > 1.5:
		score += 22
	case m.SharpeRatio > 1.0:
		score += 18
	case m.SharpeRatio > 0.5:
		score += 15
	case m.SharpeRatio > 0:
		score += 10
	}

	switch {
	case m.MaxDrawdown < 0.05:
		score += 25
	case m.MaxDrawdown < 0.10:
		score += 22
	case m.MaxDrawdown < 0.15:
		score += 18
	case m.MaxDrawdown < 0.25:
		score += 15
	case m.MaxDrawdown < 0.35:
		score += 10
	}

	switch {
	case m.WinRate > 0.60 && m.TotalTrades > 10:
		score += 20
	case m.WinRate > 0.50 && m.TotalTrades > 5:
		score += 15
	case m.WinRate > 0.40 && m.TotalTrades > 0:
		score += 10
	case m.TotalTrades > 0:
		score += 5
	}

	switch {
	case score >= 85:
		return "A+ (Excellent)"
	case score >= 75:
		return "A (Very Good)"
	case score >= 65:
		return "B (Good)"
	case score >= 55:
		return "C (Average)"
	case score >= 45:
		return "D (Below Average)"
	default:
		return "F (Poor)"
	}
}
