package binance

import (
	"github.com/go-playground/validator/v10"
	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// Config contains the credentials and session settings of a Binance spot
// connector.
type Config struct {
	APIKey    string `yaml:"api_key" json:"apiKey" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string `yaml:"secret_key" json:"secretKey" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	// BaseURL overrides the REST endpoint and takes precedence over Testnet.
	BaseURL string                 `yaml:"base_url" json:"baseUrl,omitempty" jsonschema:"title=Base URL" validate:"omitempty,url"`
	Testnet bool                   `yaml:"testnet" json:"testnet,omitempty" jsonschema:"title=Testnet"`
	Session exchange.SessionConfig `yaml:"session" json:"session"`
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance config", err)
	}

	return nil
}
