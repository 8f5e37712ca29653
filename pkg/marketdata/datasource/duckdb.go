package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// DuckDBDataSource reads bar series through a DuckDB view over a Parquet
// or CSV file.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource opens a DuckDB connection at the given database path
// (":memory:" for ephemeral use). Initialize() must be called to attach a
// bar file before reading.
func NewDataSource(path string, l *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to open DuckDB connection", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: l,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize creates the bars view over the given file. Parquet and CSV
// files are supported, chosen by extension.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("initializing DuckDB data source", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS bars;`); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to drop existing view", err)
	}

	reader := "read_parquet"
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		reader = "read_csv_auto"
	}

	// CREATE VIEW has no placeholder support; the path is trusted input
	// from the local filesystem.
	query := fmt.Sprintf(`CREATE VIEW bars AS SELECT * FROM %s('%s');`, reader, path)
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to create view over %s", path)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start, end optional.Option[time.Time]) (int, error) {
	query := d.applyRange(d.sq.Select("COUNT(*)").From("bars"), start, end)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start, end optional.Option[time.Time]) (types.BarSeries, error) {
	query := d.applyRange(
		d.sq.Select("time", "symbol", "open", "high", "low", "close", "volume").
			From("bars").
			OrderBy("time ASC"),
		start, end)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to build select query", err)
	}

	rows, err := d.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to query bars", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// ReadLast implements DataSource.
func (d *DuckDBDataSource) ReadLast(limit int) (types.BarSeries, error) {
	query := d.sq.Select("time", "symbol", "open", "high", "low", "close", "volume").
		FromSelect(
			d.sq.Select("*").From("bars").OrderBy("time DESC").Limit(uint64(limit)),
			"recent").
		OrderBy("time ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to build select query", err)
	}

	rows, err := d.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to query recent bars", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBDataSource) applyRange(query squirrel.SelectBuilder, start, end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return query
}

func scanBars(rows *sql.Rows) (types.BarSeries, error) {
	var bars types.BarSeries

	for rows.Next() {
		var bar types.Bar

		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to scan bar row", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to iterate bar rows", err)
	}

	return bars, nil
}
