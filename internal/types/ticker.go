package types

import "time"

// TickerSnapshot is the rolling 24h ticker for one symbol at one point in time.
// Snapshots are replaced wholesale on each update and handed out by value.
type TickerSnapshot struct {
	Symbol             string    `json:"symbol" yaml:"symbol"`
	Price              float64   `json:"price" yaml:"price"`
	PriceChange        float64   `json:"priceChange" yaml:"price_change"`
	PriceChangePercent float64   `json:"priceChangePercent" yaml:"price_change_percent"`
	High24h            float64   `json:"high24h" yaml:"high_24h"`
	Low24h             float64   `json:"low24h" yaml:"low_24h"`
	Volume24h          float64   `json:"volume24h" yaml:"volume_24h"`
	QuoteVolume24h     float64   `json:"quoteVolume24h" yaml:"quote_volume_24h"`
	EventTime          time.Time `json:"eventTime" yaml:"event_time"`
}
