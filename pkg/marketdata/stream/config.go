package stream

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
)

const (
	DefaultBaseURL              = "wss://stream.binance.com:9443"
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 3 * time.Second
	DefaultHandshakeTimeout     = 10 * time.Second
)

// Config contains the connection settings of a stream Manager.
type Config struct {
	// BaseURL is the combined-stream host, without the /stream path.
	BaseURL string `yaml:"base_url" json:"baseUrl" jsonschema:"title=Base URL,description=WebSocket host serving combined ticker streams" validate:"required,url"`
	// MaxReconnectAttempts bounds consecutive reconnects after a failure. 0 disables reconnecting.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts" json:"maxReconnectAttempts" jsonschema:"title=Max Reconnect Attempts,minimum=0" validate:"min=0"`
	// ReconnectDelay is the constant wait before each reconnect.
	ReconnectDelay   time.Duration `yaml:"reconnect_delay" json:"reconnectDelay" jsonschema:"title=Reconnect Delay" validate:"gte=0"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshakeTimeout" jsonschema:"title=Handshake Timeout" validate:"gt=0"`
}

// DefaultConfig returns the public Binance stream settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:              DefaultBaseURL,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		ReconnectDelay:       DefaultReconnectDelay,
		HandshakeTimeout:     DefaultHandshakeTimeout,
	}
}

// Validate validates the Config fields.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid stream config", err)
	}

	return nil
}
