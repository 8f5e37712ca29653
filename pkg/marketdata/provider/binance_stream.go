package provider

import (
	"context"
	"iter"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Aliases over the go-binance WebSocket types so tests can construct events
// without importing the SDK.
type (
	BinanceWsKline      = binance.WsKline
	BinanceWsKlineEvent = binance.WsKlineEvent
	WsKlineHandler      = func(*BinanceWsKlineEvent)
	WsErrorHandler      = func(error)
)

// BinanceWebSocketService abstracts the kline WebSocket endpoint so tests
// can inject a mock.
type BinanceWebSocketService interface {
	WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (doneC chan struct{}, stopC chan struct{}, err error)
}

type defaultBinanceWebSocketService struct{}

func (defaultBinanceWebSocketService) WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (chan struct{}, chan struct{}, error) {
	return binance.WsKlineServe(symbol, interval, handler, errHandler)
}

// Stream yields closed candles for the given symbols. Partial (unfinalized)
// klines are skipped so every yielded bar is immutable.
func (c *BinanceClient) Stream(ctx context.Context, symbols []string, interval string) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		if len(symbols) == 0 {
			yield(types.Bar{}, errors.New(errors.ErrCodeMarketDataFetchFailed, "no symbols to stream"))

			return
		}

		bars := make(chan types.Bar, 100)
		wsErrs := make(chan error, 10)

		handler := func(event *BinanceWsKlineEvent) {
			if !event.Kline.IsFinal {
				return
			}

			select {
			case bars <- convertKlineEventToBar(event):
			case <-ctx.Done():
			}
		}

		errHandler := func(err error) {
			select {
			case wsErrs <- err:
			default:
			}
		}

		stops := make([]chan struct{}, 0, len(symbols))

		defer func() {
			for _, stopC := range stops {
				close(stopC)
			}
		}()

		for _, symbol := range symbols {
			_, stopC, err := c.ws.WsKlineServe(symbol, interval, handler, errHandler)
			if err != nil {
				yield(types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to connect kline stream for %s", symbol))

				return
			}

			stops = append(stops, stopC)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case bar := <-bars:
				if !yield(bar, nil) {
					return
				}
			case err := <-wsErrs:
				if !yield(types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "websocket error", err)) {
					return
				}
			}
		}
	}
}

func convertKlineEventToBar(event *BinanceWsKlineEvent) types.Bar {
	open, _ := strconv.ParseFloat(event.Kline.Open, 64)
	high, _ := strconv.ParseFloat(event.Kline.High, 64)
	low, _ := strconv.ParseFloat(event.Kline.Low, 64)
	closePrice, _ := strconv.ParseFloat(event.Kline.Close, 64)
	volume, _ := strconv.ParseFloat(event.Kline.Volume, 64)

	return types.Bar{
		Time:   time.UnixMilli(event.Kline.StartTime),
		Symbol: event.Symbol,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
}
