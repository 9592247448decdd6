package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionSide string

const (
	PositionSideFlat  PositionSide = "FLAT"
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// TradeEffect says what a fill did to the position it was booked against.
type TradeEffect string

const (
	TradeEffectOpen  TradeEffect = "OPEN"
	TradeEffectClose TradeEffect = "CLOSE"
	// TradeEffectFlip closes the whole position and opens the opposite side
	// with the rest of the fill.
	TradeEffectFlip TradeEffect = "FLIP"
)

// Trade is a fill booked against a position.
type Trade struct {
	Fill   Fill        `json:"fill"`
	Effect TradeEffect `json:"effect"`
	// ClosedQuantity is the part of the fill that reduced the position.
	ClosedQuantity decimal.Decimal `json:"closed_quantity"`
	// PnL is the profit realized by the closed part, before fees.
	// For example, holding 3 at an average entry of 100 and selling 1 at 110
	// realizes (110-100)*1 = 10. Fills that only open realize nothing.
	PnL decimal.Decimal `json:"pnl"`
}

// Position is the net holding of one symbol built from fills. Quantity is
// positive when long and negative when short.
type Position struct {
	Symbol            string          `json:"symbol"`
	Quantity          decimal.Decimal `json:"quantity"`
	AverageEntryPrice decimal.Decimal `json:"average_entry_price"`
	RealizedPnL       decimal.Decimal `json:"realized_pnl"`
	// Fees sums the fees of every booked fill, in their own fee assets.
	Fees      map[string]decimal.Decimal `json:"fees,omitempty"`
	OpenedAt  time.Time                  `json:"opened_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Side reports the direction of the position.
func (p Position) Side() PositionSide {
	switch p.Quantity.Sign() {
	case 1:
		return PositionSideLong
	case -1:
		return PositionSideShort
	default:
		return PositionSideFlat
	}
}

// UnrealizedPnL values the open quantity at mark.
func (p Position) UnrealizedPnL(mark decimal.Decimal) decimal.Decimal {
	return mark.Sub(p.AverageEntryPrice).Mul(p.Quantity)
}

// Copy returns a position that shares no memory with p.
func (p Position) Copy() Position {
	if p.Fees != nil {
		fees := make(map[string]decimal.Decimal, len(p.Fees))
		for asset, fee := range p.Fees {
			fees[asset] = fee
		}

		p.Fees = fees
	}

	return p
}

// Apply books fill against the position and returns the resulting trade.
func (p *Position) Apply(fill Fill) Trade {
	signed := fill.Quantity
	if fill.Side == SideSell {
		signed = signed.Neg()
	}

	trade := Trade{Fill: fill, Effect: TradeEffectOpen, ClosedQuantity: decimal.Zero, PnL: decimal.Zero}

	if p.Quantity.IsZero() || p.Quantity.Sign() == signed.Sign() {
		held := p.Quantity.Abs()
		notional := held.Mul(p.AverageEntryPrice).Add(fill.Quantity.Mul(fill.Price))
		p.AverageEntryPrice = notional.Div(held.Add(fill.Quantity))

		if p.Quantity.IsZero() {
			p.OpenedAt = fill.Timestamp
		}
	} else {
		closed := decimal.Min(fill.Quantity, p.Quantity.Abs())
		trade.ClosedQuantity = closed
		trade.PnL = fill.Price.Sub(p.AverageEntryPrice).Mul(closed)

		if p.Quantity.IsNegative() {
			trade.PnL = trade.PnL.Neg()
		}

		p.RealizedPnL = p.RealizedPnL.Add(trade.PnL)
		trade.Effect = TradeEffectClose

		if fill.Quantity.GreaterThan(closed) {
			trade.Effect = TradeEffectFlip
			p.AverageEntryPrice = fill.Price
			p.OpenedAt = fill.Timestamp
		}
	}

	p.Quantity = p.Quantity.Add(signed)
	if p.Quantity.IsZero() {
		p.AverageEntryPrice = decimal.Zero
	}

	if fill.Fee.IsPositive() {
		if p.Fees == nil {
			p.Fees = make(map[string]decimal.Decimal)
		}

		p.Fees[fill.FeeAsset] = p.Fees[fill.FeeAsset].Add(fill.Fee)
	}

	if fill.Timestamp.After(p.UpdatedAt) {
		p.UpdatedAt = fill.Timestamp
	}

	return trade
}
