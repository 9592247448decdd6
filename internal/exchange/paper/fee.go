package paper

import (
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/types"
)

// FeeModel computes the fee charged on the amount a fill delivers. The fee
// is paid in the received asset: base for buys, quote for sells.
type FeeModel interface {
	Fee(liquidity types.Liquidity, received decimal.Decimal) decimal.Decimal
}

type FeeSchedule string

const (
	FeeScheduleZero FeeSchedule = "zero"
	FeeScheduleFlat FeeSchedule = "flat"
)

var AllFeeSchedules = []any{
	FeeScheduleZero,
	FeeScheduleFlat,
}

// FeeConfig selects a fee schedule. Rates are fractions, 0.001 is 10 bps.
type FeeConfig struct {
	Schedule  FeeSchedule     `yaml:"schedule" json:"schedule" validate:"omitempty,oneof=zero flat"`
	MakerRate decimal.Decimal `yaml:"maker_rate" json:"maker_rate"`
	TakerRate decimal.Decimal `yaml:"taker_rate" json:"taker_rate"`
}

// NewFeeModel returns the model for cfg. Unknown schedules charge nothing.
func NewFeeModel(cfg FeeConfig) FeeModel {
	switch cfg.Schedule {
	case FeeScheduleFlat:
		return &FlatFee{Maker: cfg.MakerRate, Taker: cfg.TakerRate}
	case FeeScheduleZero:
		return &ZeroFee{}
	default:
		return &ZeroFee{}
	}
}

// ZeroFee charges nothing.
type ZeroFee struct{}

func (ZeroFee) Fee(types.Liquidity, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// FlatFee charges a fixed rate per liquidity role.
type FlatFee struct {
	Maker decimal.Decimal
	Taker decimal.Decimal
}

func (f *FlatFee) Fee(liquidity types.Liquidity, received decimal.Decimal) decimal.Decimal {
	if liquidity == types.LiquidityMaker {
		return received.Mul(f.Maker)
	}

	return received.Mul(f.Taker)
}
