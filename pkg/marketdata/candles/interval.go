package candles

import (
	"strings"

	"github.com/rxtech-lab/argo-pulse/pkg/errors"
)

// Interval is a kline bucket size in Binance notation.
type Interval string

const (
	Interval1s  Interval = "1s"
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
	Interval1M  Interval = "1M"
)

// SupportedIntervals lists every interval accepted by the klines endpoints.
var SupportedIntervals = []Interval{
	Interval1s, Interval1m, Interval3m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval2h, Interval4h, Interval6h, Interval8h, Interval12h,
	Interval1d, Interval3d, Interval1w, Interval1M,
}

// NormalizeInterval converts user input such as "1H" or " 4h " into the casing
// Binance requires. The unit letter is lowercased except "M", which is the
// month unit and must stay upper case.
func NormalizeInterval(raw string) (Interval, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 2 {
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", raw)
	}

	count := trimmed[:len(trimmed)-1]
	unit := trimmed[len(trimmed)-1:]

	if unit != "M" {
		unit = strings.ToLower(unit)
	}

	interval := Interval(count + unit)
	for _, supported := range SupportedIntervals {
		if interval == supported {
			return interval, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", raw)
}

func (i Interval) String() string {
	return string(i)
}
