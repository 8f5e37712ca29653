package types

import (
	"sort"
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Bar represents one OHLCV sample for a fixed time interval.
// Bars are immutable once ingested.
type Bar struct {
	Time   time.Time `csv:"time" yaml:"time"`
	Symbol string    `csv:"symbol" yaml:"symbol"`
	Open   float64   `csv:"open" yaml:"open"`
	High   float64   `csv:"high" yaml:"high"`
	Low    float64   `csv:"low" yaml:"low"`
	Close  float64   `csv:"close" yaml:"close"`
	Volume float64   `csv:"volume" yaml:"volume"`
}

// BarSeries is an ordered sequence of bars with strictly increasing
// timestamps. It is the unit strategies and the simulator operate on.
type BarSeries []Bar

// Validate checks the series ordering invariant: timestamps must be
// strictly increasing with no duplicates.
func (s BarSeries) Validate() error {
	if len(s) == 0 {
		return errors.New(errors.ErrCodeInvalidBarSeries, "bar series is empty")
	}

	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidBarSeries,
				"bar series timestamps must be strictly increasing: bar %d (%s) is not after bar %d (%s)",
				i, s[i].Time.Format(time.RFC3339), i-1, s[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

// SortByTime returns a copy of the series sorted by timestamp ascending.
func (s BarSeries) SortByTime() BarSeries {
	sorted := make(BarSeries, len(s))
	copy(sorted, s)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return sorted
}

// Opens returns the open price column.
func (s BarSeries) Opens() []float64 {
	return s.column(func(b Bar) float64 { return b.Open })
}

// Highs returns the high price column.
func (s BarSeries) Highs() []float64 {
	return s.column(func(b Bar) float64 { return b.High })
}

// Lows returns the low price column.
func (s BarSeries) Lows() []float64 {
	return s.column(func(b Bar) float64 { return b.Low })
}

// Closes returns the close price column.
func (s BarSeries) Closes() []float64 {
	return s.column(func(b Bar) float64 { return b.Close })
}

// Volumes returns the volume column.
func (s BarSeries) Volumes() []float64 {
	return s.column(func(b Bar) float64 { return b.Volume })
}

func (s BarSeries) column(get func(Bar) float64) []float64 {
	values := make([]float64, len(s))
	for i, b := range s {
		values[i] = get(b)
	}

	return values
}

// Interval estimates the bar interval as the median spacing between
// consecutive timestamps. Returns 0 for series with fewer than two bars.
func (s BarSeries) Interval() time.Duration {
	if len(s) < 2 {
		return 0
	}

	gaps := make([]time.Duration, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		gaps = append(gaps, s[i].Time.Sub(s[i-1].Time))
	}

	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })

	return gaps[len(gaps)/2]
}
