package stream

import (
	"net/url"
	"strings"

	"github.com/rxtech-lab/argo-pulse/pkg/errors"
)

// normalizeSymbols upper-cases, trims and deduplicates symbols, keeping first-seen order.
func normalizeSymbols(symbols []string) ([]string, error) {
	seen := make(map[string]struct{}, len(symbols))
	result := make([]string, 0, len(symbols))

	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}

		if _, ok := seen[symbol]; ok {
			continue
		}

		seen[symbol] = struct{}{}
		result = append(result, symbol)
	}

	if len(result) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "at least one symbol is required")
	}

	return result, nil
}

// streamURL builds the combined ticker stream URL, e.g.
// wss://stream.binance.com:9443/stream?streams=btcusdt@ticker/ethusdt@ticker
func streamURL(baseURL string, symbols []string) (string, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid stream base url", err)
	}

	names := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		names = append(names, strings.ToLower(symbol)+"@ticker")
	}

	return strings.TrimRight(baseURL, "/") + "/stream?streams=" + strings.Join(names, "/"), nil
}
