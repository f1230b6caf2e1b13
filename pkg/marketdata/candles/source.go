package candles

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/rxtech-lab/argo-pulse/internal/types"
)

// KlineSource fetches klines from one venue and maps them into types.Candle.
type KlineSource interface {
	// Name identifies the venue in logs and errors.
	Name() string
	// Klines returns up to limit candles for symbol, oldest first.
	Klines(ctx context.Context, symbol string, interval Interval, limit int) ([]types.Candle, error)
}

// SpotSource reads klines from the Binance spot REST API.
type SpotSource struct {
	client *binance.Client
}

// NewSpotSource creates a spot source against baseURL (e.g. https://api.binance.com).
func NewSpotSource(baseURL string, timeout time.Duration) *SpotSource {
	client := binance.NewClient("", "")
	client.BaseURL = strings.TrimRight(baseURL, "/")
	client.HTTPClient = &http.Client{Timeout: timeout}

	return &SpotSource{client: client}
}

func (s *SpotSource) Name() string {
	return "spot"
}

// Klines implements KlineSource.
func (s *SpotSource) Klines(ctx context.Context, symbol string, interval Interval, limit int) ([]types.Candle, error) {
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval.String()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("spot klines request failed: %w", err)
	}

	result := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		candle, err := toCandle(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume, k.CloseTime, k.QuoteAssetVolume, k.TradeNum)
		if err != nil {
			return nil, err
		}

		result = append(result, candle)
	}

	return result, nil
}

// FuturesSource reads klines from the Binance USDⓈ-M futures REST API.
// Some symbols only trade as perpetuals, which makes it the fallback venue.
type FuturesSource struct {
	client *futures.Client
}

// NewFuturesSource creates a futures source against baseURL (e.g. https://fapi.binance.com).
func NewFuturesSource(baseURL string, timeout time.Duration) *FuturesSource {
	client := futures.NewClient("", "")
	client.BaseURL = strings.TrimRight(baseURL, "/")
	client.HTTPClient = &http.Client{Timeout: timeout}

	return &FuturesSource{client: client}
}

func (s *FuturesSource) Name() string {
	return "futures"
}

// Klines implements KlineSource.
func (s *FuturesSource) Klines(ctx context.Context, symbol string, interval Interval, limit int) ([]types.Candle, error) {
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval.String()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("futures klines request failed: %w", err)
	}

	result := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		candle, err := toCandle(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume, k.CloseTime, k.QuoteAssetVolume, k.TradeNum)
		if err != nil {
			return nil, err
		}

		result = append(result, candle)
	}

	return result, nil
}

// toCandle maps the positional kline fields shared by both venues.
func toCandle(openTime int64, open, high, low, closePrice, volume string, closeTime int64, quoteVolume string, tradeCount int64) (types.Candle, error) {
	values := make([]float64, 0, 6)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"open", open},
		{"high", high},
		{"low", low},
		{"close", closePrice},
		{"volume", volume},
		{"quote_volume", quoteVolume},
	} {
		parsed, err := strconv.ParseFloat(field.value, 64)
		if err != nil {
			return types.Candle{}, fmt.Errorf("invalid kline %s %q: %w", field.name, field.value, err)
		}

		values = append(values, parsed)
	}

	return types.Candle{
		OpenTime:    time.UnixMilli(openTime).UTC(),
		Open:        values[0],
		High:        values[1],
		Low:         values[2],
		Close:       values[3],
		Volume:      values[4],
		CloseTime:   time.UnixMilli(closeTime).UTC(),
		QuoteVolume: values[5],
		TradeCount:  tradeCount,
	}, nil
}
