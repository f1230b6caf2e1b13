package main

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pulse/internal/analytics"
	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/internal/version"
	"github.com/rxtech-lab/argo-pulse/pkg/tradesource"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var timestampLayouts = []string{"2006-01-02", time.RFC3339}

func reportFormatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, yaml or json",
		Value:   formatTable,
	}
}

func reportCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Build and inspect trade performance reports",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Compute a performance report from closed-trade files (CSV, JSON or Parquet)",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "trades",
						Aliases:  []string{"t"},
						Usage:    "Trade `FILE`, repeat for several files",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:  "start",
						Usage: "Only include trades at or after this time (`YYYY-MM-DD` or RFC3339)",
						Config: cli.TimestampConfig{
							Layouts: timestampLayouts,
						},
					},
					&cli.TimestampFlag{
						Name:  "end",
						Usage: "Only include trades at or before this time (`YYYY-MM-DD` or RFC3339)",
						Config: cli.TimestampConfig{
							Layouts: timestampLayouts,
						},
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also write the report as YAML to `FILE`",
					},
					reportFormatFlag(),
				},
				Action: a.reportBuildAction,
			},
			{
				Name:  "show",
				Usage: "Print a report written by report build",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Report `FILE`",
						Required: true,
					},
					reportFormatFlag(),
				},
				Action: a.reportShowAction,
			},
		},
	}
}

func (a *app) reportBuildAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := checkFormat(format, formatTable, formatYAML, formatJSON); err != nil {
		return err
	}

	opts := tradesource.LoadOptions{}
	if cmd.IsSet("start") {
		opts.Start = optional.Some(cmd.Timestamp("start").UTC())
	}

	if cmd.IsSet("end") {
		opts.End = optional.Some(cmd.Timestamp("end").UTC())
	}

	source, err := tradesource.Open(a.logger)
	if err != nil {
		return err
	}
	defer source.Close()

	paths := cmd.StringSlice("trades")
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Loading trades"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(stderr(cmd)),
	)

	var trades []types.ClosedTrade

	for _, path := range paths {
		loaded, err := source.Load(ctx, path, opts)
		if err != nil {
			return err
		}

		trades = append(trades, loaded...)
		_ = bar.Add(1)
	}

	_ = bar.Finish()
	fmt.Fprintln(stderr(cmd))

	report := analytics.BuildReport(trades, time.Now().UTC())
	report.Version = version.GetVersion()

	if output := cmd.String("output"); output != "" {
		if err := types.WritePerformanceReport(output, report); err != nil {
			return err
		}

		a.logger.Info("Performance report written", zap.String("path", output), zap.Int("records", len(trades)))
	}

	return printReport(cmd, report, format)
}

func (a *app) reportShowAction(_ context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := checkFormat(format, formatTable, formatYAML, formatJSON); err != nil {
		return err
	}

	report, err := types.ReadPerformanceReport(cmd.String("file"))
	if err != nil {
		return err
	}

	if err := version.CheckReportCompatibility(version.GetVersion(), report.Version); err != nil {
		return err
	}

	return printReport(cmd, report, format)
}

func printReport(cmd *cli.Command, report types.PerformanceReport, format string) error {
	w := stdout(cmd)

	switch format {
	case formatJSON:
		return writeJSON(w, report)
	case formatYAML:
		return writeYAML(w, report)
	default:
		_, err := fmt.Fprint(w, RenderReport(report))

		return err
	}
}
