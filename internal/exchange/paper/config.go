package paper

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// MarketRemainderPolicy decides what happens to the part of a market order
// the book cannot fill.
type MarketRemainderPolicy string

const (
	// RejectRemainder cancels the unfilled remainder. A market order that
	// cannot fill at all is rejected.
	RejectRemainder MarketRemainderPolicy = "reject-remainder"
	// RestAtFallback rests the remainder as a limit order at the last known
	// price, moved against the taker by FallbackSlippage.
	RestAtFallback MarketRemainderPolicy = "rest-at-fallback"
)

// Config configures the paper venue. MarketRemainder has no default and
// must be set.
type Config struct {
	// Balances are the initial free balances per asset.
	Balances        map[string]decimal.Decimal `yaml:"balances" json:"balances" jsonschema:"description=Initial free balance per asset"`
	Fees            FeeConfig                  `yaml:"fees" json:"fees"`
	MarketRemainder MarketRemainderPolicy      `yaml:"market_remainder" json:"market_remainder" validate:"required,oneof=reject-remainder rest-at-fallback" jsonschema:"enum=reject-remainder,enum=rest-at-fallback"`
	// FallbackSlippage is a fraction, 0.001 moves the fallback price by 10 bps.
	FallbackSlippage decimal.Decimal `yaml:"fallback_slippage" json:"fallback_slippage"`
	// SyntheticDepth is the quantity quoted on each side of a ticker update.
	SyntheticDepth decimal.Decimal `yaml:"synthetic_depth" json:"synthetic_depth"`
	// Latency delays every connector call.
	Latency time.Duration          `yaml:"latency" json:"latency" validate:"gte=0"`
	Session exchange.SessionConfig `yaml:"session" json:"session"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid paper venue config", err)
	}

	for asset, amount := range c.Balances {
		if amount.IsNegative() {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "initial %s balance is negative", asset)
		}
	}

	one := decimal.NewFromInt(1)
	for name, rate := range map[string]decimal.Decimal{
		"maker_rate":        c.Fees.MakerRate,
		"taker_rate":        c.Fees.TakerRate,
		"fallback_slippage": c.FallbackSlippage,
	} {
		if rate.IsNegative() || rate.GreaterThanOrEqual(one) {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s must be in [0, 1)", name)
		}
	}

	if c.SyntheticDepth.IsNegative() {
		return errors.New(errors.ErrCodeInvalidConfiguration, "synthetic_depth is negative")
	}

	return nil
}
