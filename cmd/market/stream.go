package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"github.com/rxtech-lab/argo-pulse/pkg/marketdata/stream"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func streamCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Print live 24h ticker updates until interrupted",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "symbols",
				Aliases:  []string{"s"},
				Usage:    "Symbols to stream, repeat the flag or separate with commas",
				Required: true,
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Stop after this long. Zero streams until interrupted",
			},
		},
		Action: a.streamAction,
	}
}

// tickPrinter writes one line per ticker update and marks the move since the
// previous update of the same symbol.
type tickPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	previous map[string]float64
	stopped  bool
}

func newTickPrinter(w io.Writer) *tickPrinter {
	return &tickPrinter{
		w:        w,
		previous: make(map[string]float64),
	}
}

func (p *tickPrinter) print(snapshot types.TickerSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	fmt.Fprintf(p.w, "%s  %-10s %s  %s\n",
		snapshot.EventTime.UTC().Format("15:04:05"),
		snapshot.Symbol,
		FormatPriceWithColor(snapshot.Price, p.previous[snapshot.Symbol]),
		FormatSigned(snapshot.PriceChangePercent, "%"),
	)

	p.previous[snapshot.Symbol] = snapshot.Price
}

// stop drops updates still in flight from a session that is shutting down.
func (p *tickPrinter) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
}

func (a *app) streamAction(ctx context.Context, cmd *cli.Command) error {
	symbols := cmd.StringSlice("symbols")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if duration := cmd.Duration("duration"); duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	exhausted := make(chan error, 1)

	var manager *stream.Manager

	manager, err := stream.NewManager(a.config.Stream, a.logger, stream.WithStateListener(func(state stream.State) {
		a.logger.Debug("Stream state changed", zap.String("state", state.String()))

		if state != stream.StateDisconnected {
			return
		}

		if lastErr := manager.LastError(); errors.IsCode(lastErr, errors.ErrCodeExhaustedRetries) {
			select {
			case exhausted <- lastErr:
			default:
			}
		}
	}))
	if err != nil {
		return err
	}
	defer manager.Disconnect()

	w := stdout(cmd)
	printer := newTickPrinter(w)

	for _, symbol := range symbols {
		unsubscribe := manager.Subscribe(symbol, printer.print)
		defer unsubscribe()
	}

	if err := manager.Connect(ctx, symbols); err != nil {
		return err
	}

	fmt.Fprintln(stderr(cmd), HelpStyle.Render("Streaming, press Ctrl+C to stop"))

	select {
	case <-ctx.Done():
	case err := <-exhausted:
		printer.stop()

		return err
	}

	prices := manager.GetAllPrices()
	manager.Disconnect()
	printer.stop()

	if len(prices) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Last prices at %s", time.Now().UTC().Format("15:04:05"))))
		fmt.Fprintln(w, PriceTable(prices).Render())
	}

	return nil
}
