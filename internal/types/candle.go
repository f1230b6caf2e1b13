package types

import "time"

// Candle is one OHLCV bucket as returned by a klines endpoint.
type Candle struct {
	OpenTime    time.Time `json:"openTime" yaml:"open_time"`
	Open        float64   `json:"open" yaml:"open"`
	High        float64   `json:"high" yaml:"high"`
	Low         float64   `json:"low" yaml:"low"`
	Close       float64   `json:"close" yaml:"close"`
	Volume      float64   `json:"volume" yaml:"volume"`
	CloseTime   time.Time `json:"closeTime" yaml:"close_time"`
	QuoteVolume float64   `json:"quoteVolume" yaml:"quote_volume"`
	TradeCount  int64     `json:"tradeCount" yaml:"trade_count"`
}
