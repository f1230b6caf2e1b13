package candles

import (
	"context"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-pulse/internal/logger"
	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"go.uber.org/zap"
)

// FetchParams holds the validated parameters of a candle request.
type FetchParams struct {
	Symbol   string   `validate:"required"`
	Interval Interval `validate:"required"`
	Limit    int      `validate:"min=1,max=1000"`
}

// Fetcher pulls fixed-size candle windows from a primary source and falls back
// to a secondary source once when the primary fails.
// It holds no mutable state, so concurrent calls are safe.
type Fetcher struct {
	primary   KlineSource
	secondary KlineSource
	logger    *logger.Logger
	validate  *validator.Validate
}

// NewFetcher creates a fetcher backed by the Binance spot (primary) and
// futures (secondary) REST APIs.
func NewFetcher(config Config, log *logger.Logger) (*Fetcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return NewFetcherWithSources(
		NewSpotSource(config.PrimaryBaseURL, config.RequestTimeout),
		NewFuturesSource(config.SecondaryBaseURL, config.RequestTimeout),
		log,
	), nil
}

// NewFetcherWithSources creates a fetcher with explicit sources.
func NewFetcherWithSources(primary KlineSource, secondary KlineSource, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Fetcher{
		primary:   primary,
		secondary: secondary,
		logger:    log,
		validate:  validator.New(),
	}
}

// FetchCandles returns up to limit candles for symbol at interval, newest last.
// Interval input is normalized first (e.g. "1H" becomes "1h").
// When the primary source fails the secondary is tried exactly once; if that
// also fails the error carries ErrCodeDataUnavailable and both causes.
func (f *Fetcher) FetchCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error) {
	normalized, err := NormalizeInterval(interval)
	if err != nil {
		return nil, err
	}

	params := FetchParams{
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Interval: normalized,
		Limit:    limit,
	}

	if err := f.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid candle request", err)
	}

	result, primaryErr := f.primary.Klines(ctx, params.Symbol, params.Interval, params.Limit)
	if primaryErr == nil {
		return sortCandles(result), nil
	}

	if ctx.Err() != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "candle request cancelled", ctx.Err())
	}

	f.logger.Warn("Primary candle source failed, falling back",
		zap.String("symbol", params.Symbol),
		zap.String("interval", params.Interval.String()),
		zap.String("primary", f.primary.Name()),
		zap.String("secondary", f.secondary.Name()),
		zap.Error(primaryErr),
	)

	result, secondaryErr := f.secondary.Klines(ctx, params.Symbol, params.Interval, params.Limit)
	if secondaryErr != nil {
		return nil, errors.Wrapf(
			errors.ErrCodeDataUnavailable,
			errors.Join(primaryErr, secondaryErr),
			"no candles for %s %s from %s or %s",
			params.Symbol, params.Interval, f.primary.Name(), f.secondary.Name(),
		)
	}

	f.logger.Debug("Candles served by secondary source",
		zap.String("symbol", params.Symbol),
		zap.String("source", f.secondary.Name()),
		zap.Int("count", len(result)),
	)

	return sortCandles(result), nil
}

func sortCandles(candles []types.Candle) []types.Candle {
	slices.SortStableFunc(candles, func(a, b types.Candle) int {
		return a.OpenTime.Compare(b.OpenTime)
	})

	return candles
}
