package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rxtech-lab/argo-pulse/internal/config"
	"github.com/rxtech-lab/argo-pulse/internal/logger"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once the root flags are parsed.
type app struct {
	config config.Config
	logger *logger.Logger
}

// before loads the configuration and builds the logger.
// Logs go to stderr so stdout only carries command output.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	a.config = config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return ctx, err
		}

		a.config = loaded
	}

	level := a.config.Log.Level
	if override := cmd.String("log-level"); override != "" {
		level = override
	}

	log, err := logger.NewLoggerWithOutput(level, "stderr")
	if err != nil {
		return ctx, err
	}

	a.logger = log
	a.logger.Debug("Configuration loaded", zap.String("config", cmd.String("config")), zap.String("level", level))

	return ctx, nil
}

func (a *app) after(_ context.Context, _ *cli.Command) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}

	return nil
}

func newApp() *cli.Command {
	a := &app{}

	return &cli.Command{
		Name:  "market",
		Usage: "Binance candles, live tickers and trade performance reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config `FILE`. Defaults to the public Binance endpoints",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			candlesCommand(a),
			streamCommand(a),
			reportCommand(a),
			schemaCommand(),
			versionCommand(),
		},
	}
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}

	return os.Stderr
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
