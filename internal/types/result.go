package types

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// BacktestConfig is the configuration snapshot a simulation runs under.
type BacktestConfig struct {
	// Strategy is the registry name of the strategy under test.
	Strategy string `yaml:"strategy" validate:"required"`
	// Symbol of the instrument being simulated.
	Symbol string `yaml:"symbol" validate:"required"`
	// Parameters is the strategy parameter map passed to the registry factory.
	Parameters map[string]any `yaml:"parameters"`
	// InitialCapital is the starting account balance.
	InitialCapital float64 `yaml:"initial_capital" validate:"gt=0"`
	// CommissionRate is charged on notional at entry and exit (0.001 = 0.1%).
	CommissionRate float64 `yaml:"commission_rate" validate:"gte=0,lt=1"`
	// SlippageRate is the assumed adverse fill movement (0.0005 = 0.05%).
	SlippageRate float64 `yaml:"slippage_rate" validate:"gte=0,lt=1"`
	// MaxPositionSize is the maximum fraction of capital per position.
	MaxPositionSize float64 `yaml:"max_position_size" validate:"gt=0,lte=1"`
	// RiskFreeRate is the annual risk-free rate used by Sharpe and Sortino.
	RiskFreeRate float64 `yaml:"risk_free_rate" validate:"gte=0,lt=1"`
}

// DefaultBacktestConfig returns the conventional simulation defaults.
func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		Strategy:        "",
		Symbol:          "",
		Parameters:      nil,
		InitialCapital:  10000.0,
		CommissionRate:  0.001,
		SlippageRate:    0.0005,
		MaxPositionSize: 1.0,
		RiskFreeRate:    0.02,
	}
}

// Validate checks the configuration against its struct constraints.
func (c BacktestConfig) Validate() error {
	validate := validator.New()

	return validate.Struct(c)
}

// PerformanceMetrics is the fixed set of return/risk statistics derived from
// an equity curve and trade list.
type PerformanceMetrics struct {
	// Return metrics.
	TotalReturn  float64 `yaml:"total_return"`
	AnnualReturn float64 `yaml:"annual_return"`
	SharpeRatio  float64 `yaml:"sharpe_ratio"`
	SortinoRatio float64 `yaml:"sortino_ratio"`
	CalmarRatio  float64 `yaml:"calmar_ratio"`

	// Drawdown metrics.
	MaxDrawdown         float64       `yaml:"max_drawdown"`
	MaxDrawdownDuration time.Duration `yaml:"max_drawdown_duration"`

	// Trade statistics.
	TotalTrades      int           `yaml:"total_trades"`
	WinningTrades    int           `yaml:"winning_trades"`
	LosingTrades     int           `yaml:"losing_trades"`
	WinRate          float64       `yaml:"win_rate"`
	AvgWin           float64       `yaml:"avg_win"`
	AvgLoss          float64       `yaml:"avg_loss"`
	ProfitFactor     float64       `yaml:"profit_factor"`
	AvgTradeDuration time.Duration `yaml:"avg_trade_duration"`

	// Risk metrics.
	Volatility float64 `yaml:"volatility"`
	Beta       float64 `yaml:"beta"`
	VaR95      float64 `yaml:"var_95"`

	// Capital metrics.
	InitialCapital float64 `yaml:"initial_capital"`
	FinalCapital   float64 `yaml:"final_capital"`
	PeakCapital    float64 `yaml:"peak_capital"`
}

// BacktestResult is the complete output of one simulation run.
type BacktestResult struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// Config is the configuration snapshot the run used.
	Config BacktestConfig `yaml:"config"`
	// Metrics is the derived performance statistics.
	Metrics PerformanceMetrics `yaml:"metrics"`
	// Grade is the deterministic letter grade, e.g. "A (Very Good)".
	Grade string `yaml:"grade"`
	// StartTime and EndTime bound the simulated period.
	StartTime time.Time `yaml:"start_time"`
	EndTime   time.Time `yaml:"end_time"`
	// EquityCurve holds one point per bar consumed.
	EquityCurve []EquityPoint `yaml:"equity_curve"`
	// DrawdownCurve is aligned with the equity curve.
	DrawdownCurve []DrawdownPoint `yaml:"drawdown_curve"`
	// Trades is the fully realized trade list (open positions are force
	// closed at the final bar).
	Trades []Trade `yaml:"trades"`
}

// Duration returns the simulated period length.
func (r *BacktestResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// WriteBacktestResult serializes a result to a YAML file.
func WriteBacktestResult(path string, result *BacktestResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result to file: %w", err)
	}

	return nil
}
