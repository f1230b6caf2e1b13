package types

import (
	"strings"
	"time"
)

type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
)

// UnknownPattern is the bucket used for trades without a pattern type.
const UnknownPattern = "Unknown"

// ClosedTrade is an already persisted trade record.
// Only SELL records close a position and carry a realized PnL.
type ClosedTrade struct {
	TransactionType TransactionType `json:"transaction_type" yaml:"transaction_type" csv:"transaction_type"`
	// RealizedPnL is the profit or loss booked when the position was closed.
	RealizedPnL float64 `json:"realized_pnl" yaml:"realized_pnl" csv:"realized_pnl"`
	// PatternType is the chart pattern reported by the scanner that triggered the trade.
	PatternType   string    `json:"pattern_type" yaml:"pattern_type" csv:"pattern_type"`
	TransactionAt time.Time `json:"transaction_at" yaml:"transaction_at" csv:"transaction_at"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at" csv:"created_at"`
}

// IsClosed reports whether the record is a closing (SELL) transaction.
func (t ClosedTrade) IsClosed() bool {
	return strings.EqualFold(string(t.TransactionType), string(TransactionTypeSell))
}

// EffectiveTime returns TransactionAt, falling back to CreatedAt when it is unset.
func (t ClosedTrade) EffectiveTime() time.Time {
	if t.TransactionAt.IsZero() {
		return t.CreatedAt
	}

	return t.TransactionAt
}

// Pattern returns the trimmed pattern type, or UnknownPattern when empty.
func (t ClosedTrade) Pattern() string {
	pattern := strings.TrimSpace(t.PatternType)
	if pattern == "" {
		return UnknownPattern
	}

	return pattern
}
