// Package config loads the YAML configuration shared by the market CLI.
package config

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"github.com/rxtech-lab/argo-pulse/pkg/marketdata/candles"
	"github.com/rxtech-lab/argo-pulse/pkg/marketdata/stream"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level string `yaml:"level" json:"level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"oneof=debug info warn error"`
}

// Config is the root configuration document.
type Config struct {
	Log     LogConfig      `yaml:"log" json:"log"`
	Candles candles.Config `yaml:"candles" json:"candles" jsonschema:"title=Candles,description=Historical kline endpoints"`
	Stream  stream.Config  `yaml:"stream" json:"stream" jsonschema:"title=Stream,description=Live ticker stream settings"`
}

// Default returns a configuration pointing at the public Binance endpoints.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		Candles: candles.DefaultConfig(),
		Stream:  stream.DefaultConfig(),
	}
}

// Load reads and validates the YAML file at path. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	config := Default()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate validates the Config fields.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// Schema returns the JSON schema of Config.
func Schema() (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(Config{})

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
