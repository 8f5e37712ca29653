package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

// GenerateReport renders a backtest result as a markdown report.
func GenerateReport(result *types.BacktestResult) string {
	m := result.Metrics

	var b strings.Builder

	b.WriteString("# Backtest Report\n\n")

	b.WriteString("## Strategy Configuration\n")
	fmt.Fprintf(&b, "- **Strategy**: %s\n", result.Config.Strategy)
	fmt.Fprintf(&b, "- **Symbol**: %s\n", result.Config.Symbol)
	fmt.Fprintf(&b, "- **Period**: %s to %s (%d days)\n",
		result.StartTime.Format("2006-01-02"),
		result.EndTime.Format("2006-01-02"),
		int(result.Duration().Hours()/24))
	fmt.Fprintf(&b, "- **Initial Capital**: %s\n", formatCurrency(m.InitialCapital))
	fmt.Fprintf(&b, "- **Parameters**: %v\n\n", result.Config.Parameters)

	b.WriteString("## Performance Summary\n")
	fmt.Fprintf(&b, "- **Total Return**: %s\n", formatPercent(m.TotalReturn))
	fmt.Fprintf(&b, "- **Annual Return**: %s\n", formatPercent(m.AnnualReturn))
	fmt.Fprintf(&b, "- **Final Capital**: %s\n", formatCurrency(m.FinalCapital))
	fmt.Fprintf(&b, "- **Peak Capital**: %s\n\n", formatCurrency(m.PeakCapital))

	b.WriteString("## Risk Metrics\n")
	fmt.Fprintf(&b, "- **Maximum Drawdown**: %s\n", formatPercent(m.MaxDrawdown))
	fmt.Fprintf(&b, "- **Drawdown Duration**: %d days\n", int(m.MaxDrawdownDuration.Hours()/24))
	fmt.Fprintf(&b, "- **Volatility**: %s\n", formatPercent(m.Volatility))
	fmt.Fprintf(&b, "- **Sharpe Ratio**: %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "- **Sortino Ratio**: %.2f\n", m.SortinoRatio)
	fmt.Fprintf(&b, "- **Calmar Ratio**: %.2f\n", m.CalmarRatio)
	fmt.Fprintf(&b, "- **Beta**: %.2f\n", m.Beta)
	fmt.Fprintf(&b, "- **VaR (95%%)**: %s\n\n", formatPercent(m.VaR95))

	b.WriteString("## Trading Statistics\n")
	fmt.Fprintf(&b, "- **Total Trades**: %d\n", m.TotalTrades)
	fmt.Fprintf(&b, "- **Winning Trades**: %d\n", m.WinningTrades)
	fmt.Fprintf(&b, "- **Losing Trades**: %d\n", m.LosingTrades)
	fmt.Fprintf(&b, "- **Win Rate**: %s\n", formatPercent(m.WinRate))
	fmt.Fprintf(&b, "- **Average Win**: $%.2f\n", m.AvgWin)
	fmt.Fprintf(&b, "- **Average Loss**: $%.2f\n", m.AvgLoss)
	fmt.Fprintf(&b, "- **Profit Factor**: %.2f\n", m.ProfitFactor)
	fmt.Fprintf(&b, "- **Average Trade Duration**: %.1f hours\n\n", m.AvgTradeDuration.Hours())

	fmt.Fprintf(&b, "## Grade: %s\n", result.Grade)

	return b.String()
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// formatCurrency renders a dollar amount with thousands separators, e.g.
// $12,345.67.
func formatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	cents := int64(math.Round(v * 100))
	digits := fmt.Sprintf("%d", cents/100)

	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}

		grouped.WriteRune(d)
	}

	return fmt.Sprintf("%s$%s.%02d", sign, grouped.String(), cents%100)
}
