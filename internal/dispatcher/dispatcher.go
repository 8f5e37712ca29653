// Package dispatcher re-evaluates strategies incrementally as live bars
// arrive and emits edge-triggered signal events.
//
// Each (strategy, symbol) subscription owns a goroutine with its own bar
// channel and trailing window, so a slow evaluation never blocks bar
// ingestion for unrelated symbols. Events are merged onto a single output
// channel; a subscription's last-emitted-signal state is private to its
// goroutine, so cancelling one subscription cannot corrupt another.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

const (
	// MinWindowBars is the minimum trailing window before a strategy is
	// evaluated; fewer bars is silently skipped.
	MinWindowBars = 20

	// defaultMaxWindowBars bounds the trailing window so long-running
	// subscriptions do not grow without limit.
	defaultMaxWindowBars = 500

	// barBufferSize is the per-subscription bar channel capacity.
	barBufferSize = 64
)

// Event is a discrete signal emission for one (strategy, symbol) pair. An
// event is emitted only when the resolved signal differs from the last
// emitted signal for that pair.
type Event struct {
	Strategy string
	Symbol   string
	Signal   types.SignalValue
	Time     time.Time
	Price    float64
}

type subKey struct {
	strategy string
	symbol   string
}

type subscription struct {
	key    subKey
	bars   chan types.Bar
	cancel context.CancelFunc
	done   chan struct{}
}

// Dispatcher fans incoming bars out to per-subscription evaluators.
type Dispatcher struct {
	logger    *logger.Logger
	maxWindow int
	events    chan Event
	mu        sync.Mutex
	subs      map[subKey]*subscription
	closed    bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxWindow overrides the trailing window cap.
func WithMaxWindow(bars int) Option {
	return func(d *Dispatcher) {
		d.maxWindow = bars
	}
}

// NewDispatcher creates a dispatcher with an output event channel sized to
// the given buffer.
func NewDispatcher(l *logger.Logger, eventBuffer int, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:    l,
		maxWindow: defaultMaxWindowBars,
		events:    make(chan Event, eventBuffer),
		mu:        sync.Mutex{},
		subs:      make(map[subKey]*subscription),
		closed:    false,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Events returns the merged signal event stream.
func (d *Dispatcher) Events() <-chan Event {
	return d.events
}

// Subscribe starts evaluating the strategy against bars for the symbol.
// The subscription runs until Unsubscribe, Close, or ctx cancellation.
func (d *Dispatcher) Subscribe(ctx context.Context, s strategy.Strategy, symbol string) error {
	key := subKey{strategy: s.Name(), symbol: symbol}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.New(errors.ErrCodeDispatcherStopped, "dispatcher is stopped")
	}

	if _, exists := d.subs[key]; exists {
		return errors.Newf(errors.ErrCodeSubscriptionExists,
			"subscription for strategy %q on symbol %q already exists", s.Name(), symbol)
	}

	subCtx, cancel := context.WithCancel(ctx)

	sub := &subscription{
		key:    key,
		bars:   make(chan types.Bar, barBufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	d.subs[key] = sub

	go d.evaluate(subCtx, sub, s)

	d.logger.Info("subscription started",
		zap.String("strategy", s.Name()),
		zap.String("symbol", symbol),
	)

	return nil
}

// Unsubscribe stops the (strategy, symbol) subscription, interrupting any
// pending evaluation, and waits for its goroutine to exit. Unknown pairs
// are a no-op.
func (d *Dispatcher) Unsubscribe(strategyName, symbol string) {
	key := subKey{strategy: strategyName, symbol: symbol}

	d.mu.Lock()
	sub, ok := d.subs[key]
	if ok {
		delete(d.subs, key)
	}
	d.mu.Unlock()

	if !ok {
		return
	}

	sub.cancel()
	<-sub.done

	d.logger.Info("subscription stopped",
		zap.String("strategy", strategyName),
		zap.String("symbol", symbol),
	)
}

// Dispatch routes one closed bar to every subscription monitoring its
// symbol. The send never blocks: when a subscription's buffer is full the
// bar is dropped for that subscription with a warning, so one slow
// evaluator cannot stall ingestion.
func (d *Dispatcher) Dispatch(bar types.Bar) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, sub := range d.subs {
		if key.symbol != bar.Symbol {
			continue
		}

		select {
		case sub.bars <- bar:
		default:
			d.logger.Warn("subscription bar buffer full, dropping bar",
				zap.String("strategy", key.strategy),
				zap.String("symbol", key.symbol),
				zap.Time("bar_time", bar.Time),
			)
		}
	}
}

// Close stops every subscription and closes the event channel.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()

		return
	}

	d.closed = true
	subs := make([]*subscription, 0, len(d.subs))

	for key, sub := range d.subs {
		subs = append(subs, sub)
		delete(d.subs, key)
	}
	d.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		<-sub.done
	}

	close(d.events)
}

// evaluate is the per-subscription loop: append each bar to the trailing
// window, re-run the full strategy pipeline, and emit when the resolved
// signal changes.
func (d *Dispatcher) evaluate(ctx context.Context, sub *subscription, s strategy.Strategy) {
	defer close(sub.done)

	window := make(types.BarSeries, 0, d.maxWindow)
	lastEmitted := types.SignalHold

	for {
		select {
		case <-ctx.Done():
			return
		case bar := <-sub.bars:
			window = append(window, bar)
			if len(window) > d.maxWindow {
				window = window[len(window)-d.maxWindow:]
			}

			if len(window) < MinWindowBars {
				continue
			}

			rows, err := strategy.Run(d.logger, s, window)
			if err != nil {
				d.logger.Error("live evaluation failed",
					zap.String("strategy", sub.key.strategy),
					zap.String("symbol", sub.key.symbol),
					zap.Int("window", len(window)),
					zap.Error(err),
				)

				continue
			}

			resolved := resolveSignal(rows)
			if resolved == lastEmitted {
				continue
			}

			lastEmitted = resolved

			event := Event{
				Strategy: sub.key.strategy,
				Symbol:   sub.key.symbol,
				Signal:   resolved,
				Time:     bar.Time,
				Price:    bar.Close,
			}

			select {
			case d.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

// resolveSignal reduces a pipeline run to one actionable signal: the
// latest bar's value.
func resolveSignal(rows []types.SignalRow) types.SignalValue {
	if len(rows) == 0 {
		return types.SignalHold
	}

	return rows[len(rows)-1].Signal
}
