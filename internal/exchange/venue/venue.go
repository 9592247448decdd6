// Package venue is the registry of supported venues: their metadata,
// configuration schemas and connector constructors.
package venue

import (
	"encoding/json"
	"sort"

	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/internal/exchange/binance"
	"github.com/superalgorithm/superalgorithm/internal/exchange/paper"
	"github.com/superalgorithm/superalgorithm/internal/exchange/woo"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"github.com/superalgorithm/superalgorithm/pkg/schema"
)

type Type string

const (
	TypePaper          Type = "paper"
	TypeBinance        Type = "binance"
	TypeBinanceTestnet Type = "binance-testnet"
	TypeWoo            Type = "woo"
)

type Info struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var registry = map[Type]Info{
	TypePaper: {
		Name:           string(TypePaper),
		DisplayName:    "Paper",
		Description:    "Local matching engine filling against replayed or live market data",
		IsPaperTrading: true,
	},
	TypeBinance: {
		Name:           string(TypeBinance),
		DisplayName:    "Binance",
		Description:    "Binance spot with real funds",
		IsPaperTrading: false,
	},
	TypeBinanceTestnet: {
		Name:           string(TypeBinanceTestnet),
		DisplayName:    "Binance Testnet",
		Description:    "Binance spot testnet without real funds",
		IsPaperTrading: true,
	},
	TypeWoo: {
		Name:           string(TypeWoo),
		DisplayName:    "WOO X",
		Description:    "WOO X spot with real funds",
		IsPaperTrading: false,
	},
}

// Decoder fills out from an external configuration representation.
type Decoder func(out any) error

// Supported returns the registered venue types in name order.
func Supported() []string {
	venues := make([]string, 0, len(registry))
	for venueType := range registry {
		venues = append(venues, string(venueType))
	}

	sort.Strings(venues)

	return venues
}

// GetInfo returns metadata for a venue.
func GetInfo(venueType string) (Info, error) {
	info, exists := registry[Type(venueType)]
	if !exists {
		return Info{}, unsupported(venueType)
	}

	return info, nil
}

// GetConfigSchema returns the JSON schema of a venue's configuration.
func GetConfigSchema(venueType string) (string, error) {
	switch Type(venueType) {
	case TypePaper:
		return schema.ToJSONSchema(paper.Config{})
	case TypeBinance, TypeBinanceTestnet:
		return schema.ToJSONSchema(binance.Config{})
	case TypeWoo:
		return schema.ToJSONSchema(woo.Config{})
	default:
		return "", unsupported(venueType)
	}
}

// ParseConfig decodes and validates a venue's configuration. The result is
// a pointer to the venue's config struct.
func ParseConfig(venueType string, decode Decoder) (any, error) {
	switch Type(venueType) {
	case TypePaper:
		return parse(decode, func(c *paper.Config) error { return c.Validate() })
	case TypeBinance:
		return parse(decode, func(c *binance.Config) error { return c.Validate() })
	case TypeBinanceTestnet:
		return parse(decode, func(c *binance.Config) error {
			c.Testnet = true

			return c.Validate()
		})
	case TypeWoo:
		return parse(decode, func(c *woo.Config) error { return c.Validate() })
	default:
		return nil, unsupported(venueType)
	}
}

// ParseConfigJSON parses a JSON configuration string for a venue.
func ParseConfigJSON(venueType string, jsonConfig string) (any, error) {
	return ParseConfig(venueType, func(out any) error {
		return json.Unmarshal([]byte(jsonConfig), out)
	})
}

func parse[T any](decode Decoder, validate func(*T) error) (*T, error) {
	var config T
	if err := decode(&config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse venue config", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// New creates the connector for a venue from a config returned by
// ParseConfig.
func New(venueType string, config any, log *logger.Logger) (exchange.Connector, error) {
	switch Type(venueType) {
	case TypePaper:
		cfg, ok := config.(*paper.Config)
		if !ok {
			return nil, invalidConfigType(venueType)
		}

		connector, err := paper.NewEngine(*cfg, log)
		if err != nil {
			return nil, err
		}

		return connector, nil
	case TypeBinance, TypeBinanceTestnet:
		cfg, ok := config.(*binance.Config)
		if !ok {
			return nil, invalidConfigType(venueType)
		}

		connector, err := binance.New(*cfg, log)
		if err != nil {
			return nil, err
		}

		return connector, nil
	case TypeWoo:
		cfg, ok := config.(*woo.Config)
		if !ok {
			return nil, invalidConfigType(venueType)
		}

		connector, err := woo.New(*cfg, log)
		if err != nil {
			return nil, err
		}

		return connector, nil
	default:
		return nil, unsupported(venueType)
	}
}

func unsupported(venueType string) error {
	return errors.Newf(errors.ErrCodeInvalidProvider, "unsupported venue: %s", venueType)
}

func invalidConfigType(venueType string) error {
	return errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid config type for venue %s", venueType)
}
