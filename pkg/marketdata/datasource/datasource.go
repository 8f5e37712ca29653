// Package datasource loads historical bar series from columnar storage.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

// DataSource provides read access to a historical bar store.
type DataSource interface {
	// Initialize points the data source at a Parquet or CSV file.
	Initialize(path string) error
	// Count returns the number of bars in the optional time range.
	Count(start, end optional.Option[time.Time]) (int, error)
	// ReadAll returns bars in the optional time range, ordered by time.
	ReadAll(start, end optional.Option[time.Time]) (types.BarSeries, error)
	// ReadLast returns the most recent limit bars, ordered by time.
	ReadLast(limit int) (types.BarSeries, error)
	// Close releases the underlying database connection.
	Close() error
}
