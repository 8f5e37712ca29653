package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-quant/internal/backtest"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata/datasource"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// GradeStyle for the final grade line.
	GradeStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	// DetailStyle for secondary output.
	DetailStyle = lipgloss.NewStyle().Faint(true)
)

// backtestAction loads the configuration and bar data, evaluates the
// strategy, simulates the signal stream and writes the result artifacts.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputDir := cmd.String("output")

	l, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync()

	config, err := backtest.LoadConfig(configPath)
	if err != nil {
		return err
	}

	registry := strategy.NewDefaultRegistry(l)

	s, err := registry.Create(config.Strategy, strategy.Parameters(config.Parameters))
	if err != nil {
		return err
	}

	source, err := datasource.NewDataSource(":memory:", l)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return err
	}

	start := optional.None[time.Time]()
	if cmd.IsSet("start") {
		start = optional.Some(cmd.Timestamp("start"))
	}

	end := optional.None[time.Time]()
	if cmd.IsSet("end") {
		end = optional.Some(cmd.Timestamp("end"))
	}

	bars, err := source.ReadAll(start, end)
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Backtesting %s on %s (%d bars)", config.Strategy, config.Symbol, len(bars))))

	signals, err := strategy.Run(l, s, bars)
	if err != nil {
		return err
	}

	sim, err := backtest.NewSimulator(config, l)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(bars),
		progressbar.OptionSetDescription("Simulating"),
		progressbar.OptionShowCount())
	sim.OnProgress = func(processed, total int) {
		bar.Set(processed)
	}

	result, err := sim.Run(bars, signals)
	if err != nil {
		return err
	}

	bar.Finish()
	fmt.Println()

	report := backtest.GenerateReport(result)
	fmt.Println(report)
	fmt.Println(GradeStyle.Render(fmt.Sprintf("Grade: %s", result.Grade)))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	resultPath := filepath.Join(outputDir, fmt.Sprintf("backtest_%s.yaml", result.ID))
	if err := types.WriteBacktestResult(resultPath, result); err != nil {
		return err
	}

	reportPath := filepath.Join(outputDir, fmt.Sprintf("backtest_%s.md", result.ID))
	if err := os.WriteFile(reportPath, []byte(report), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Println(DetailStyle.Render(fmt.Sprintf("Result written to %s", resultPath)))
	fmt.Println(DetailStyle.Render(fmt.Sprintf("Report written to %s", reportPath)))

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a strategy backtest over historical bar data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the backtest configuration YAML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the historical bar data file (Parquet or CSV)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Directory for result and report files",
				Value:    "results",
				Required: false,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format, defaults to the first bar",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: false,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format, defaults to the last bar",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
