package backtest

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Simulator replays an aligned signal sequence against price bars,
// maintaining a single position register (flat, long or short). Each Run
// owns an isolated mutable state, so one Simulator may serve concurrent
// runs.
type Simulator struct {
	config types.BacktestConfig
	logger *logger.Logger

	// OnProgress, when set, is invoked with (processed, total) bar counts
	// as the simulation advances.
	OnProgress func(processed, total int)
}

// NewSimulator validates the configuration and creates a simulator.
func NewSimulator(config types.BacktestConfig, l *logger.Logger) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestConfigError,
			"invalid backtest config", err)
	}

	return &Simulator{
		config:     config,
		logger:     l,
		OnProgress: nil,
	}, nil
}

// position is the simulator's open-position register.
type position struct {
	side       types.Side
	quantity   float64
	entryPrice float64 // slippage-adjusted fill price
	entryTime  time.Time
	entryComm  float64
}

// runState is the per-run mutable state.
type runState struct {
	cash     float64
	pos      *position
	trades   []types.Trade
	equity   []types.EquityPoint
	drawdown []types.DrawdownPoint

	peak float64
}

// Run executes the simulation. The signal sequence must be aligned 1:1
// with the bars; any open position is forcibly closed at the final bar so
// every run yields a fully realized trade list.
func (s *Simulator) Run(bars types.BarSeries, signals []types.SignalRow) (*types.BacktestResult, error) {
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoData,
			"no market data available for simulation")
	}

	if err := bars.Validate(); err != nil {
		return nil, err
	}

	if len(signals) != len(bars) {
		return nil, errors.Newf(errors.ErrCodeSignalMisaligned,
			"signal sequence not aligned with bars: %d signals for %d bars",
			len(signals), len(bars))
	}

	s.logger.Info("starting backtest",
		zap.String("strategy", s.config.Strategy),
		zap.String("symbol", s.config.Symbol),
		zap.Int("bars", len(bars)),
		zap.Float64("initial_capital", s.config.InitialCapital),
	)

	state := &runState{
		cash:     s.config.InitialCapital,
		pos:      nil,
		trades:   nil,
		equity:   make([]types.EquityPoint, 0, len(bars)),
		drawdown: make([]types.DrawdownPoint, 0, len(bars)),
		peak:     s.config.InitialCapital,
	}

	for i, bar := range bars {
		s.processSignal(state, bar, signals[i].Signal)

		// Force-close whatever is still open at the final bar, so the
		// last equity point reflects fully realized capital.
		if i == len(bars)-1 && state.pos != nil {
			s.closePosition(state, bar.Time, bar.Close)
		}

		s.recordEquity(state, bar.Time, bar.Close)

		if s.OnProgress != nil {
			s.OnProgress(i+1, len(bars))
		}
	}

	final := bars[len(bars)-1]

	metrics := CalculateMetrics(s.config, state.equity, state.trades, bars)

	result := &types.BacktestResult{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Config:        s.config,
		Metrics:       metrics,
		Grade:         Grade(metrics),
		StartTime:     bars[0].Time,
		EndTime:       final.Time,
		EquityCurve:   state.equity,
		DrawdownCurve: state.drawdown,
		Trades:        state.trades,
	}

	s.logger.Info("backtest complete",
		zap.String("id", result.ID),
		zap.Float64("total_return", metrics.TotalReturn),
		zap.Int("trades", metrics.TotalTrades),
		zap.String("grade", result.Grade),
	)

	return result, nil
}

// processSignal acts on one bar's signal: a buy closes any short and opens
// a long, a sell closes any long and opens a short. Signals in the
// direction of the open position are ignored.
func (s *Simulator) processSignal(state *runState, bar types.Bar, signal types.SignalValue) {
	price := bar.Close

	switch {
	case signal == types.SignalBuy && (state.pos == nil || state.pos.side == types.SideShort):
		if state.pos != nil {
			s.closePosition(state, bar.Time, price)
		}

		s.openPosition(state, types.SideLong, bar.Time, price)

	case signal == types.SignalSell && (state.pos == nil || state.pos.side == types.SideLong):
		if state.pos != nil {
			s.closePosition(state, bar.Time, price)
		}

		s.openPosition(state, types.SideShort, bar.Time, price)
	}
}

// openPosition commits min(cash, cash*maxPositionSize) of notional at the
// slippage-adjusted fill price and charges entry commission. Short
// proceeds are held as margin rather than added to cash, so equity marks
// shorts against their entry price.
func (s *Simulator) openPosition(state *runState, side types.Side, t time.Time, price float64) {
	notional := state.cash * s.config.MaxPositionSize
	if state.cash < notional {
		notional = state.cash
	}

	if notional <= 0 {
		return
	}

	entryPrice := price * (1 + s.config.SlippageRate)
	if side == types.SideShort {
		entryPrice = price * (1 - s.config.SlippageRate)
	}

	quantity := notional / entryPrice
	commission := notional * s.config.CommissionRate

	if side == types.SideLong {
		state.cash -= notional
	}

	state.cash -= commission

	state.pos = &position{
		side:       side,
		quantity:   quantity,
		entryPrice: entryPrice,
		entryTime:  t,
		entryComm:  commission,
	}
}

// closePosition realizes the open position at the slippage-adjusted exit
// price, charging exit commission, and appends the finished trade.
func (s *Simulator) closePosition(state *runState, t time.Time, price float64) {
	pos := state.pos

	exitPrice := price * (1 - s.config.SlippageRate)
	if pos.side == types.SideShort {
		exitPrice = price * (1 + s.config.SlippageRate)
	}

	pnl := types.CalculatePnL(pos.side, pos.quantity, pos.entryPrice, exitPrice)
	exitCommission := pos.quantity * exitPrice * s.config.CommissionRate

	if pos.side == types.SideLong {
		state.cash += pos.quantity * exitPrice
	} else {
		state.cash += pnl
	}

	state.cash -= exitCommission

	state.trades = append(state.trades, types.Trade{
		EntryTime:      pos.entryTime,
		ExitTime:       t,
		Symbol:         s.config.Symbol,
		Side:           pos.side,
		EntryPrice:     pos.entryPrice,
		ExitPrice:      exitPrice,
		Quantity:       pos.quantity,
		PnL:            pnl,
		CommissionPaid: pos.entryComm + exitCommission,
		Duration:       t.Sub(pos.entryTime),
	})

	state.pos = nil
}

// recordEquity appends the mark-to-market equity and drawdown at a bar's
// close, and advances the incremental peak/drawdown-episode tracking. One
// point is recorded per bar regardless of trading activity.
func (s *Simulator) recordEquity(state *runState, t time.Time, price float64) {
	equity := state.cash

	if pos := state.pos; pos != nil {
		if pos.side == types.SideLong {
			equity += pos.quantity * price
		} else {
			equity += pos.quantity * (pos.entryPrice - price)
		}
	}

	drawdown := 0.0

	if equity >= state.peak {
		// Reclaiming the peak ends the current drawdown episode.
		state.peak = equity
	} else {
		drawdown = (state.peak - equity) / state.peak
	}

	state.equity = append(state.equity, types.EquityPoint{Time: t, Equity: equity})
	state.drawdown = append(state.drawdown, types.DrawdownPoint{Time: t, Drawdown: drawdown})
}
