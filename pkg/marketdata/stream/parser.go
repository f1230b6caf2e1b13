package stream

import (
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"github.com/valyala/fastjson"
)

// tickerParser decodes combined-stream 24h ticker envelopes:
//
//	{"stream":"btcusdt@ticker","data":{"s":"BTCUSDT","c":"42000.1","p":"10.0",...,"E":1704067200000}}
//
// A tickerParser is not safe for concurrent use; each session owns one.
type tickerParser struct {
	parser fastjson.Parser
}

// numericField maps a string-encoded decimal in the frame onto a snapshot field.
type numericField struct {
	key  string
	dest *float64
}

func (p *tickerParser) parse(frame []byte) (types.TickerSnapshot, error) {
	value, err := p.parser.ParseBytes(frame)
	if err != nil {
		return types.TickerSnapshot{}, errors.Wrap(errors.ErrCodeParse, "malformed frame", err)
	}

	data := value.Get("data")
	if data == nil || data.Type() != fastjson.TypeObject {
		return types.TickerSnapshot{}, errors.New(errors.ErrCodeParse, "frame has no data object")
	}

	symbol := string(data.GetStringBytes("s"))
	if symbol == "" {
		return types.TickerSnapshot{}, errors.New(errors.ErrCodeParse, "frame has no symbol")
	}

	snapshot := types.TickerSnapshot{Symbol: symbol}
	fields := []numericField{
		{"c", &snapshot.Price},
		{"p", &snapshot.PriceChange},
		{"P", &snapshot.PriceChangePercent},
		{"h", &snapshot.High24h},
		{"l", &snapshot.Low24h},
		{"v", &snapshot.Volume24h},
		{"q", &snapshot.QuoteVolume24h},
	}

	for _, field := range fields {
		raw := data.GetStringBytes(field.key)
		if raw == nil {
			return types.TickerSnapshot{}, errors.Newf(errors.ErrCodeParse, "%s: missing field %q", symbol, field.key)
		}

		parsed, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return types.TickerSnapshot{}, errors.Wrapf(errors.ErrCodeParse, err, "%s: invalid field %q", symbol, field.key)
		}

		*field.dest = parsed
	}

	eventTime := data.Get("E")
	if eventTime == nil {
		return types.TickerSnapshot{}, errors.Newf(errors.ErrCodeParse, "%s: missing event time", symbol)
	}

	millis, err := eventTime.Int64()
	if err != nil {
		return types.TickerSnapshot{}, errors.Wrapf(errors.ErrCodeParse, err, "%s: invalid event time", symbol)
	}

	snapshot.EventTime = time.UnixMilli(millis).UTC()

	return snapshot, nil
}
