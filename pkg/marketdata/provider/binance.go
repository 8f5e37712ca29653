package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata/writer"
)

// binancePageSize is the maximum number of klines the Binance REST API
// returns per request.
const binancePageSize = 500

// binanceMaxRetries bounds the exponential backoff on transient fetch
// failures.
const binanceMaxRetries = 5

type BinanceClient struct {
	client *binance.Client
	ws     BinanceWebSocketService
	writer writer.BarWriter
}

// NewBinanceClient creates an unauthenticated Binance client. Public kline
// endpoints do not require credentials.
func NewBinanceClient() (Provider, error) {
	return &BinanceClient{
		client: binance.NewClient("", ""),
		ws:     defaultBinanceWebSocketService{},
		writer: nil,
	}, nil
}

// NewBinanceClientWithWebSocket creates a Binance client with an explicit
// WebSocket service, used by tests to inject a mock.
func NewBinanceClientWithWebSocket(client *binance.Client, ws BinanceWebSocketService) *BinanceClient {
	return &BinanceClient{
		client: client,
		ws:     ws,
		writer: nil,
	}
}

func (c *BinanceClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// Download fetches historical klines page by page and writes them through
// the configured writer. Transient fetch failures are retried with
// exponential backoff.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	interval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataFetchFailed, "no writer configured for BinanceClient, call ConfigWriter first")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	defer c.writer.Close()

	// Binance timestamps are in milliseconds. Pagination advances the
	// window start past the last kline's close time to avoid duplicates.
	endTimeMillis := endDate.UnixMilli()
	currentStartTime := startDate.UnixMilli()

	for {
		klines, err := c.fetchKlines(ctx, ticker, interval, currentStartTime, endTimeMillis)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines from Binance", ticker)
		}

		if onProgress != nil {
			onProgress(float64(currentStartTime), float64(endTimeMillis), fmt.Sprintf("Downloading %s klines from Binance", ticker))
		}

		if err := c.writeKlines(ticker, klines); err != nil {
			return "", err
		}

		// Less than a full page means the range is exhausted.
		if len(klines) < binancePageSize {
			break
		}

		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}

func (c *BinanceClient) fetchKlines(ctx context.Context, ticker, interval string, startTime, endTime int64) ([]*binance.Kline, error) {
	var klines []*binance.Kline

	operation := func() error {
		var err error

		klines, err = c.client.NewKlinesService().
			Symbol(ticker).
			Interval(interval).
			StartTime(startTime).
			EndTime(endTime).
			Limit(binancePageSize).
			Do(ctx)

		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), binanceMaxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return klines, nil
}

func (c *BinanceClient) writeKlines(ticker string, klines []*binance.Kline) error {
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		bar := types.Bar{
			Time:   time.UnixMilli(k.OpenTime),
			Symbol: ticker,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		}

		if err := c.writer.Write(bar); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write bar", err)
		}
	}

	return nil
}

// convertTimespanToBinanceInterval maps a timespan and multiplier onto a
// Binance interval string (1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h,
// 1d, 3d, 1w, 1M).
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	switch timespan {
	case models.Minute:
		return fmt.Sprintf("%dm", multiplier), nil
	case models.Hour:
		return fmt.Sprintf("%dh", multiplier), nil
	case models.Day:
		return fmt.Sprintf("%dd", multiplier), nil
	case models.Week:
		if multiplier == 1 {
			return "1w", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported weekly multiplier for Binance: %d", multiplier)
	case models.Month:
		if multiplier == 1 {
			return "1M", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported monthly multiplier for Binance: %d", multiplier)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan for Binance: %s", timespan)
	}
}
