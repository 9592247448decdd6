package woo

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

const DefaultBaseURL = "https://api.woo.org"

// Config contains the credentials and session settings of a WOO X spot
// connector.
type Config struct {
	APIKey    string `yaml:"api_key" json:"apiKey" jsonschema:"title=API Key,description=WOO X API key" validate:"required"`
	SecretKey string `yaml:"secret_key" json:"secretKey" jsonschema:"title=Secret Key,description=WOO X API secret" validate:"required"`
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string                 `yaml:"base_url" json:"baseUrl,omitempty" jsonschema:"title=Base URL" validate:"omitempty,url"`
	Timeout time.Duration          `yaml:"timeout" json:"timeout,omitempty" jsonschema:"title=Request Timeout" validate:"gte=0"`
	Session exchange.SessionConfig `yaml:"session" json:"session"`
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid woo config", err)
	}

	return nil
}
