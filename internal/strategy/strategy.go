// Package strategy implements polymorphic signal generators over bar series,
// plus the registry that names, validates and constructs them.
package strategy

import (
	"sort"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// Strategy generates a directional signal column plus auxiliary indicator
// columns from a bar series. Implementations are value types constructed by
// the registry with validated parameters; they carry no mutable state across
// calls, so one instance may evaluate many series.
type Strategy interface {
	// Name returns the canonical registry name of the strategy.
	Name() string
	// Warmup returns the minimum number of bars ComputeSignals requires.
	Warmup() int
	// ComputeSignals produces one SignalRow per input bar. It must return
	// an InsufficientDataError before any computation when the series is
	// shorter than Warmup().
	ComputeSignals(bars types.BarSeries) ([]types.SignalRow, error)
	// ValidateParameters re-checks the constructed parameter set.
	ValidateParameters() error
}

// Run executes the full strategy pipeline: pre-process the bars, compute
// raw signals, then edge-trigger filter the result. The output stays
// aligned 1:1 with the (sorted) input bars.
func Run(l *logger.Logger, s Strategy, bars types.BarSeries) ([]types.SignalRow, error) {
	l.Debug("running strategy",
		zap.String("strategy", s.Name()),
		zap.Int("bars", len(bars)),
	)

	processed := preProcess(bars)

	rows, err := s.ComputeSignals(processed)
	if err != nil {
		l.Error("strategy signal computation failed",
			zap.String("strategy", s.Name()),
			zap.Int("bars", len(processed)),
			zap.Error(err),
		)

		return nil, err
	}

	filtered := FilterEdges(rows)

	l.Debug("strategy run complete",
		zap.String("strategy", s.Name()),
		zap.Int("signals", countActive(filtered)),
	)

	return filtered, nil
}

// preProcess sorts bars by timestamp and forward-fills zero-valued close,
// high and low prices from the previous bar, mirroring gap handling in the
// ingestion layer. The input series is not mutated.
func preProcess(bars types.BarSeries) types.BarSeries {
	out := make(types.BarSeries, len(bars))
	copy(out, bars)

	if !sort.SliceIsSorted(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	}) {
		out = out.SortByTime()
	}

	for i := 1; i < len(out); i++ {
		if out[i].Close == 0 {
			out[i].Close = out[i-1].Close
		}

		if out[i].High == 0 {
			out[i].High = out[i-1].High
		}

		if out[i].Low == 0 {
			out[i].Low = out[i-1].Low
		}
	}

	return out
}

// FilterEdges collapses runs of identical consecutive signal values so a
// strategy speaks only at transition bars. Output stays aligned 1:1 with
// the input: non-transition rows keep their indicator columns but have
// their signal zeroed. The first row is always kept as-is. Applying the
// filter twice yields the same result as applying it once.
func FilterEdges(rows []types.SignalRow) []types.SignalRow {
	out := make([]types.SignalRow, len(rows))
	copy(out, rows)

	for i := len(out) - 1; i >= 1; i-- {
		if rows[i].Signal == rows[i-1].Signal {
			out[i].Signal = types.SignalHold
		}
	}

	return out
}

func countActive(rows []types.SignalRow) int {
	n := 0

	for _, r := range rows {
		if r.Signal != types.SignalHold {
			n++
		}
	}

	return n
}
