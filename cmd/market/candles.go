package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-pulse/pkg/marketdata/candles"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func candlesCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "candles",
		Usage: "Fetch historical candles, falling back to futures when spot fails",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Trading pair, e.g. BTCUSDT",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Kline interval (1m, 5m, 1h, 4h, 1d, ...)",
				Value:   "1h",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   fmt.Sprintf("Number of candles (1-%d)", candles.MaxLimit),
				Value:   100,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: table or json",
				Value:   formatTable,
			},
		},
		Action: a.candlesAction,
	}
}

func (a *app) candlesAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := checkFormat(format, formatTable, formatJSON); err != nil {
		return err
	}

	fetcher, err := candles.NewFetcher(a.config.Candles, a.logger)
	if err != nil {
		return err
	}

	symbol := cmd.String("symbol")
	interval := cmd.String("interval")

	result, err := fetcher.FetchCandles(ctx, symbol, interval, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	a.logger.Debug("Fetched candles", zap.String("symbol", symbol), zap.Int("count", len(result)))

	w := stdout(cmd)
	if format == formatJSON {
		return writeJSON(w, result)
	}

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s %s", strings.ToUpper(strings.TrimSpace(symbol)), interval)))
	fmt.Fprintln(w, CandleTable(result).Render())

	return nil
}
