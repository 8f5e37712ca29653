package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/rxtech-lab/argo-quant/internal/dispatcher"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata/provider"
)

// Style definitions.
var (
	// BuyStyle for buy signal lines.
	BuyStyle = lipgloss.NewStyle().Bold(true)

	// SellStyle for sell signal lines.
	SellStyle = lipgloss.NewStyle().Bold(true)

	// InfoStyle for informational output.
	InfoStyle = lipgloss.NewStyle().Faint(true)
)

// formatEvent renders a dispatcher event as a single console line.
func formatEvent(ev dispatcher.Event) string {
	line := fmt.Sprintf("%s  %s %s @ %.4f", ev.Time.Format("2006-01-02 15:04:05"), ev.Strategy, ev.Symbol, ev.Price)

	switch ev.Signal {
	case types.SignalBuy:
		return BuyStyle.Render("▲ BUY  " + line)
	case types.SignalSell:
		return SellStyle.Render("▼ SELL " + line)
	default:
		return InfoStyle.Render("- HOLD " + line)
	}
}

// loadParameters reads a strategy parameter map from an optional YAML file.
func loadParameters(path string) (strategy.Parameters, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	var params map[string]any
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse parameters file: %w", err)
	}

	return strategy.Parameters(params), nil
}

// liveAction subscribes the strategy to each symbol and feeds streamed bars
// into the dispatcher until interrupted.
func liveAction(ctx context.Context, cmd *cli.Command) error {
	strategyName := cmd.String("strategy")
	symbols := cmd.StringSlice("symbols")
	interval := cmd.String("interval")
	providerFlag := cmd.String("provider")

	l, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync()

	params, err := loadParameters(cmd.String("params"))
	if err != nil {
		return err
	}

	registry := strategy.NewDefaultRegistry(l)

	client, err := provider.NewMarketDataProvider(provider.ProviderType(providerFlag), os.Getenv("POLYGON_API_KEY"))
	if err != nil {
		return fmt.Errorf("failed to create market data provider: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := dispatcher.NewDispatcher(l, 64)
	defer d.Close()

	for _, symbol := range symbols {
		// Each subscription needs its own strategy instance since signal
		// evaluation runs concurrently per symbol.
		s, err := registry.Create(strategyName, params)
		if err != nil {
			return err
		}

		if err := d.Subscribe(ctx, s, symbol); err != nil {
			return err
		}
	}

	go func() {
		for ev := range d.Events() {
			fmt.Println(formatEvent(ev))
		}
	}()

	fmt.Println(InfoStyle.Render(fmt.Sprintf("Streaming %v at %s interval, press Ctrl-C to stop", symbols, interval)))

	for bar, err := range client.Stream(ctx, symbols, interval) {
		if err != nil {
			return err
		}

		d.Dispatch(bar)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "live",
		Usage: "Evaluate a strategy against realtime market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"S"},
				Usage:    "Registered strategy name",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "symbols",
				Aliases:  []string{"s"},
				Usage:    "Symbols to stream, repeatable",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "interval",
				Aliases:  []string{"i"},
				Usage:    "Candlestick interval (e.g. 1m, 5m, 1h)",
				Value:    "1m",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    fmt.Sprintf("Data provider to use (%s, %s)", provider.ProviderPolygon, provider.ProviderBinance),
				Value:    string(provider.ProviderBinance),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "params",
				Usage:    "Optional YAML file with strategy parameter overrides",
				Required: false,
			},
		},
		Action: liveAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
