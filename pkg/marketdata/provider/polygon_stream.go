package provider

import (
	"context"
	"iter"
	"time"

	polygonws "github.com/polygon-io/client-go/websocket"
	wsmodels "github.com/polygon-io/client-go/websocket/models"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// PolygonWebSocketService abstracts the Polygon WebSocket client so tests
// can inject a mock.
type PolygonWebSocketService interface {
	Connect() error
	Subscribe(topic polygonws.Topic, tickers ...string) error
	Unsubscribe(topic polygonws.Topic, tickers ...string) error
	Output() <-chan any
	Error() <-chan error
	Close()
}

// Stream yields aggregate bars for the given symbols from the Polygon
// WebSocket feed. The interval selects between second and minute
// aggregates; Polygon offers no coarser streaming granularity.
func (c *PolygonClient) Stream(ctx context.Context, symbols []string, interval string) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		if len(symbols) == 0 {
			yield(types.Bar{}, errors.New(errors.ErrCodeMarketDataFetchFailed, "no symbols to stream"))

			return
		}

		topic, err := convertIntervalToPolygonTopic(interval)
		if err != nil {
			yield(types.Bar{}, err)

			return
		}

		ws := c.ws
		if ws == nil {
			//nolint:exhaustruct // optional logging fields are left unset
			client, err := polygonws.New(polygonws.Config{
				APIKey: c.apiKey,
				Feed:   polygonws.RealTime,
				Market: polygonws.Stocks,
			})
			if err != nil {
				yield(types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to create websocket client", err))

				return
			}

			ws = client
		}

		if err := ws.Connect(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to connect to polygon websocket", err))

			return
		}

		defer ws.Close()

		if err := ws.Subscribe(topic, symbols...); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to subscribe", err))

			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case out, ok := <-ws.Output():
				if !ok {
					return
				}

				agg, ok := out.(wsmodels.EquityAgg)
				if !ok {
					continue
				}

				if !yield(convertEquityAggToBar(&agg), nil) {
					return
				}
			case err, ok := <-ws.Error():
				if !ok {
					return
				}

				if !yield(types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "websocket error", err)) {
					return
				}
			}
		}
	}
}

func convertEquityAggToBar(agg *wsmodels.EquityAgg) types.Bar {
	return types.Bar{
		Time:   time.UnixMilli(agg.StartTimestamp),
		Symbol: agg.Symbol,
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}
}

// convertIntervalToPolygonTopic maps a candle interval onto a Polygon
// aggregate topic. Intervals above one second fall back to minute
// aggregates.
func convertIntervalToPolygonTopic(interval string) (polygonws.Topic, error) {
	if interval == "1s" {
		return polygonws.StocksSecAggs, nil
	}

	return polygonws.StocksMinAggs, nil
}
