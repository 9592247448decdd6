// Package config loads the YAML run configuration: which venue to trade
// on, how calls to it are governed, and how often orders are reconciled.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/internal/exchange/venue"
	"github.com/superalgorithm/superalgorithm/internal/governor"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/order"
	"github.com/superalgorithm/superalgorithm/internal/version"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is a run configuration.
type Config struct {
	// Version is the module version the file was written for.
	Version  string          `yaml:"version" validate:"required"`
	Strategy StrategyConfig  `yaml:"strategy"`
	Venue    VenueConfig     `yaml:"venue"`
	Governor governor.Config `yaml:"governor"`
	// ReconcileInterval is how often active orders are compared with the
	// venue. Zero disables periodic reconciliation.
	ReconcileInterval time.Duration `yaml:"reconcile_interval" validate:"gte=0"`
}

type StrategyConfig struct {
	// ID attributes orders to a strategy in logs and order state.
	ID string `yaml:"id" validate:"required"`
}

// VenueConfig selects a venue. Config is kept as YAML until the venue
// registry decodes it into the venue's own config type.
type VenueConfig struct {
	Type   string    `yaml:"type" validate:"required"`
	Config yaml.Node `yaml:"config"`
}

// Default returns the configuration values used for omitted fields.
func Default() Config {
	return Config{
		Governor:          governor.DefaultConfig(),
		ReconcileInterval: 5 * time.Second,
	}
}

// Load reads and validates the run configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes and validates a run configuration.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration, its version and the venue section.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckConfigVersion(version.GetVersion(), c.Version); err != nil {
		return err
	}

	_, err := c.VenueSettings()

	return err
}

// VenueSettings decodes the venue section into the venue's config type.
func (c *Config) VenueSettings() (any, error) {
	return venue.ParseConfig(c.Venue.Type, c.decodeVenue)
}

func (c *Config) decodeVenue(out any) error {
	// an omitted config section leaves the venue's zero config
	if c.Venue.Config.Kind == 0 {
		return nil
	}

	return c.Venue.Config.Decode(out)
}

// Connector builds the configured venue's connector.
func (c *Config) Connector(log *logger.Logger) (exchange.Connector, error) {
	settings, err := c.VenueSettings()
	if err != nil {
		return nil, err
	}

	return venue.New(c.Venue.Type, settings, log)
}

// Manager returns the order manager configuration.
func (c *Config) Manager() order.Config {
	return order.Config{
		StrategyID: c.Strategy.ID,
		Governor:   c.Governor,
	}
}
