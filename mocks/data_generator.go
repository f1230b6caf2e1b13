package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-pulse/internal/types"
)

// DataGenerator generates realistic candles and closed trades for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// StartTime is the open time of the first candle
	StartTime time.Time
	// Interval is the duration of each candle
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per candle)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per candle
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Hour,
		Count:          1000,
		InitialPrice:   42000.0,
		Volatility:     0.002, // 0.2% per candle
		Trend:          0.0,   // neutral
		VolumeBase:     150,
		VolumeVariance: 0.3,
	}
}

// GenerateCandles creates candles following a geometric Brownian motion model.
func (g *DataGenerator) GenerateCandles(config GeneratorConfig) []types.Candle {
	candles := make([]types.Candle, config.Count)
	currentPrice := config.InitialPrice
	openTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal sample
		z := g.normal()

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + priceChange + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, closePrice) + highExtension
		low := math.Min(open, closePrice) - lowExtension
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		candles[i] = types.Candle{
			OpenTime:    openTime,
			Open:        roundToDecimals(open, 2),
			High:        roundToDecimals(high, 2),
			Low:         roundToDecimals(low, 2),
			Close:       roundToDecimals(closePrice, 2),
			Volume:      roundToDecimals(volume, 4),
			CloseTime:   openTime.Add(config.Interval - time.Millisecond),
			QuoteVolume: roundToDecimals(volume*closePrice, 2),
			TradeCount:  int64(50 + g.rng.Intn(500)),
		}

		currentPrice = closePrice
		openTime = openTime.Add(config.Interval)
	}

	return candles
}

// TradeConfig configures how closed trades are generated.
type TradeConfig struct {
	StartTime time.Time
	// Spacing is the time between consecutive trades
	Spacing time.Duration
	// Count is the number of SELL trades to generate
	Count int
	// WinProbability is the chance of a trade closing in profit (0.0 to 1.0)
	WinProbability float64
	// AverageWin and AverageLoss are magnitudes
	AverageWin  float64
	AverageLoss float64
	// Patterns are assigned round-robin; an empty string produces an unpatterned trade
	Patterns []string
	// IncludeBuys interleaves a BUY record before every SELL
	IncludeBuys bool
}

// DefaultTradeConfig returns a small, mildly profitable trade history.
func DefaultTradeConfig() TradeConfig {
	return TradeConfig{
		StartTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Spacing:        36 * time.Hour,
		Count:          200,
		WinProbability: 0.55,
		AverageWin:     120,
		AverageLoss:    90,
		Patterns:       []string{"Breakout", "Double Bottom", "Head and Shoulders", ""},
		IncludeBuys:    true,
	}
}

// GenerateTrades creates a chronological closed-trade history.
func (g *DataGenerator) GenerateTrades(config TradeConfig) []types.ClosedTrade {
	trades := make([]types.ClosedTrade, 0, config.Count*2)
	at := config.StartTime

	for i := 0; i < config.Count; i++ {
		pattern := ""
		if len(config.Patterns) > 0 {
			pattern = config.Patterns[i%len(config.Patterns)]
		}

		if config.IncludeBuys {
			trades = append(trades, types.ClosedTrade{
				TransactionType: types.TransactionTypeBuy,
				RealizedPnL:     0,
				PatternType:     pattern,
				TransactionAt:   at.Add(-time.Hour),
				CreatedAt:       at.Add(-time.Hour),
			})
		}

		magnitude := math.Abs(1 + 0.5*g.normal())

		pnl := -config.AverageLoss * magnitude
		if g.rng.Float64() < config.WinProbability {
			pnl = config.AverageWin * magnitude
		}

		trades = append(trades, types.ClosedTrade{
			TransactionType: types.TransactionTypeSell,
			RealizedPnL:     roundToDecimals(pnl, 2),
			PatternType:     pattern,
			TransactionAt:   at,
			CreatedAt:       at.Add(time.Second),
		})

		at = at.Add(config.Spacing)
	}

	return trades
}

func (g *DataGenerator) normal() float64 {
	u1 := g.rng.Float64()
	if u1 == 0 {
		u1 = math.SmallestNonzeroFloat64
	}

	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
