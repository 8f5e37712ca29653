package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-quant/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata/writer"
)

// downloadAction fetches historical bars from the selected provider and
// writes them to a Parquet file in the data directory.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	ticker := cmd.String("ticker")
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")
	providerFlag := cmd.String("provider")
	dataPath := cmd.String("data")
	multiplier := cmd.Int("multiplier")
	timespan := models.Timespan(cmd.String("timespan"))

	client, err := provider.NewMarketDataProvider(provider.ProviderType(providerFlag), os.Getenv("POLYGON_API_KEY"))
	if err != nil {
		return fmt.Errorf("failed to create market data provider: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	outputPath := filepath.Join(dataPath, fmt.Sprintf("%s_%s_%s.parquet",
		ticker, startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	client.ConfigWriter(writer.NewDuckDBWriter(outputPath))

	log.Printf("Starting download for %s from %s to %s using %s provider...",
		ticker, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), providerFlag)

	path, err := client.Download(ctx, ticker, startDate, endDate, int(multiplier), timespan, nil)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	log.Printf("Download completed, data written to %s", path)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Ticker or trading pair symbol",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "end",
				Aliases:  []string{"e"},
				Usage:    "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:    time.Now(),
				Required: false,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    fmt.Sprintf("Data provider to use (%s, %s)", provider.ProviderPolygon, provider.ProviderBinance),
				Value:    string(provider.ProviderBinance),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the data output directory",
				Value:    "data",
				Required: false,
			},
			&cli.IntFlag{
				Name:     "multiplier",
				Aliases:  []string{"m"},
				Usage:    "Timespan multiplier, e.g. 15 with timespan minute for 15m bars",
				Value:    1,
				Required: false,
			},
			&cli.StringFlag{
				Name:     "timespan",
				Usage:    "Bar timespan (minute, hour, day, week, month)",
				Value:    string(models.Hour),
				Required: false,
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
