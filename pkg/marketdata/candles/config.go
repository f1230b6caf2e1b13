package candles

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
)

const (
	// MaxLimit is the largest page the klines endpoints return in one request.
	MaxLimit = 1000

	DefaultPrimaryBaseURL   = "https://api.binance.com"
	DefaultSecondaryBaseURL = "https://fapi.binance.com"
	DefaultRequestTimeout   = 10 * time.Second
)

// Config contains the endpoints used by the candle fetcher.
type Config struct {
	// PrimaryBaseURL serves spot klines at /api/v3/klines.
	PrimaryBaseURL string `yaml:"primary_base_url" json:"primaryBaseUrl" jsonschema:"title=Primary Base URL,description=Spot REST host queried first" validate:"required,url"`
	// SecondaryBaseURL serves futures klines at /fapi/v1/klines.
	SecondaryBaseURL string        `yaml:"secondary_base_url" json:"secondaryBaseUrl" jsonschema:"title=Secondary Base URL,description=Futures REST host used when the primary fails" validate:"required,url"`
	RequestTimeout   time.Duration `yaml:"request_timeout" json:"requestTimeout" jsonschema:"title=Request Timeout,description=HTTP timeout per klines request" validate:"gt=0"`
}

// DefaultConfig returns the public Binance endpoints.
func DefaultConfig() Config {
	return Config{
		PrimaryBaseURL:   DefaultPrimaryBaseURL,
		SecondaryBaseURL: DefaultSecondaryBaseURL,
		RequestTimeout:   DefaultRequestTimeout,
	}
}

// Validate validates the Config fields.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid candles config", err)
	}

	return nil
}
