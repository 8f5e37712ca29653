package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	polygonws "github.com/polygon-io/client-go/websocket"
	wsmodels "github.com/polygon-io/client-go/websocket/models"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

// mockPolygonWebSocketService implements PolygonWebSocketService for testing.
type mockPolygonWebSocketService struct {
	events       []any
	errors       []error
	connectError error
	outputChan   chan any
	errorChan    chan error
	closed       bool
}

func newMockPolygonWebSocketService() *mockPolygonWebSocketService {
	return &mockPolygonWebSocketService{
		outputChan: make(chan any, 100),
		errorChan:  make(chan error, 10),
	}
}

func (m *mockPolygonWebSocketService) Connect() error {
	if m.connectError != nil {
		return m.connectError
	}

	go func() {
		for _, event := range m.events {
			m.outputChan <- event
		}

		for _, err := range m.errors {
			m.errorChan <- err
		}
	}()

	return nil
}

func (m *mockPolygonWebSocketService) Subscribe(topic polygonws.Topic, tickers ...string) error {
	return nil
}

func (m *mockPolygonWebSocketService) Unsubscribe(topic polygonws.Topic, tickers ...string) error {
	return nil
}

func (m *mockPolygonWebSocketService) Output() <-chan any {
	return m.outputChan
}

func (m *mockPolygonWebSocketService) Error() <-chan error {
	return m.errorChan
}

func (m *mockPolygonWebSocketService) Close() {
	if !m.closed {
		m.closed = true
		close(m.outputChan)
		close(m.errorChan)
	}
}

type PolygonStreamTestSuite struct {
	suite.Suite
}

func TestPolygonStreamSuite(t *testing.T) {
	suite.Run(t, new(PolygonStreamTestSuite))
}

func (suite *PolygonStreamTestSuite) TestStreamSingleSymbol() {
	events := []any{
		wsmodels.EquityAgg{
			Symbol:         "AAPL",
			Open:           150.00,
			High:           152.00,
			Low:            149.50,
			Close:          151.50,
			Volume:         1000000,
			StartTimestamp: 1704067200000,
		},
		wsmodels.EquityAgg{
			Symbol:         "AAPL",
			Open:           151.50,
			High:           153.00,
			Low:            151.00,
			Close:          152.75,
			Volume:         800000,
			StartTimestamp: 1704067260000,
		},
	}

	mockWs := newMockPolygonWebSocketService()
	mockWs.events = events

	client := NewPolygonClientWithWebSocket("test-api-key", mockWs)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var received []types.Bar

	for bar, err := range client.Stream(ctx, []string{"AAPL"}, "1m") {
		if err != nil {
			break
		}

		received = append(received, bar)
	}

	suite.Require().Len(received, 2)
	suite.Equal("AAPL", received[0].Symbol)
	suite.InDelta(150.00, received[0].Open, 0.01)
	suite.InDelta(151.50, received[0].Close, 0.01)
	suite.InDelta(152.75, received[1].Close, 0.01)
}

func (suite *PolygonStreamTestSuite) TestStreamMultipleSymbols() {
	events := []any{
		wsmodels.EquityAgg{
			Symbol:         "AAPL",
			Open:           150.00,
			Close:          151.50,
			High:           152.00,
			Low:            149.50,
			Volume:         1000000,
			StartTimestamp: 1704067200000,
		},
		wsmodels.EquityAgg{
			Symbol:         "GOOGL",
			Open:           140.00,
			Close:          141.50,
			High:           142.00,
			Low:            139.50,
			Volume:         500000,
			StartTimestamp: 1704067200000,
		},
	}

	mockWs := newMockPolygonWebSocketService()
	mockWs.events = events

	client := NewPolygonClientWithWebSocket("test-api-key", mockWs)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	symbolsSeen := make(map[string]bool)

	for bar, err := range client.Stream(ctx, []string{"AAPL", "GOOGL"}, "1m") {
		if err != nil {
			break
		}

		symbolsSeen[bar.Symbol] = true
	}

	suite.True(symbolsSeen["AAPL"])
	suite.True(symbolsSeen["GOOGL"])
}

func (suite *PolygonStreamTestSuite) TestStreamConnectionError() {
	mockWs := newMockPolygonWebSocketService()
	mockWs.connectError = errors.New("authentication failed")

	client := NewPolygonClientWithWebSocket("invalid-api-key", mockWs)

	var gotError bool

	for _, err := range client.Stream(context.Background(), []string{"AAPL"}, "1m") {
		if err != nil {
			gotError = true
			suite.Contains(err.Error(), "failed to connect")

			break
		}
	}

	suite.True(gotError)
}

func (suite *PolygonStreamTestSuite) TestStreamEmptySymbols() {
	client := NewPolygonClientWithWebSocket("test-api-key", newMockPolygonWebSocketService())

	var gotError bool

	for _, err := range client.Stream(context.Background(), []string{}, "1m") {
		if err != nil {
			gotError = true

			break
		}
	}

	suite.True(gotError)
}

func (suite *PolygonStreamTestSuite) TestStreamContextCancellation() {
	client := NewPolygonClientWithWebSocket("test-api-key", newMockPolygonWebSocketService())

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	iterCount := 0

	for range client.Stream(ctx, []string{"AAPL"}, "1m") {
		iterCount++
		if iterCount > 10 {
			break
		}
	}

	suite.LessOrEqual(iterCount, 10)
}

func (suite *PolygonStreamTestSuite) TestStreamWebSocketError() {
	mockWs := newMockPolygonWebSocketService()
	mockWs.errors = []error{errors.New("websocket disconnected")}

	client := NewPolygonClientWithWebSocket("test-api-key", mockWs)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var gotError bool

	for _, err := range client.Stream(ctx, []string{"AAPL"}, "1m") {
		if err != nil {
			gotError = true
			suite.Contains(err.Error(), "websocket disconnected")

			break
		}
	}

	suite.True(gotError)
}

func (suite *PolygonStreamTestSuite) TestConvertEquityAggToBar() {
	agg := &wsmodels.EquityAgg{
		Symbol:         "MSFT",
		Open:           380.50,
		High:           385.00,
		Low:            378.00,
		Close:          383.75,
		Volume:         500000,
		StartTimestamp: 1704067200000,
	}

	bar := convertEquityAggToBar(agg)

	suite.Equal("MSFT", bar.Symbol)
	suite.Equal(time.UnixMilli(1704067200000), bar.Time)
	suite.InDelta(380.50, bar.Open, 0.01)
	suite.InDelta(385.00, bar.High, 0.01)
	suite.InDelta(378.00, bar.Low, 0.01)
	suite.InDelta(383.75, bar.Close, 0.01)
	suite.InDelta(500000, bar.Volume, 0.01)
}

func (suite *PolygonStreamTestSuite) TestConvertIntervalToPolygonTopic() {
	topic, err := convertIntervalToPolygonTopic("1s")
	suite.NoError(err)
	suite.Equal(polygonws.StocksSecAggs, topic)

	topic, err = convertIntervalToPolygonTopic("1m")
	suite.NoError(err)
	suite.Equal(polygonws.StocksMinAggs, topic)

	// Coarser intervals fall back to minute aggregates.
	topic, err = convertIntervalToPolygonTopic("5m")
	suite.NoError(err)
	suite.Equal(polygonws.StocksMinAggs, topic)
}
