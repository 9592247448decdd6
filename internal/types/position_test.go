package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type PositionTestSuite struct {
	suite.Suite
}

func TestPositionSuite(t *testing.T) {
	suite.Run(t, new(PositionTestSuite))
}

func (suite *PositionTestSuite) fill(side Side, qty, price string, at int64) Fill {
	return Fill{
		TradeID:   "t",
		Symbol:    "BTC/USDT",
		Side:      side,
		Quantity:  d(qty),
		Price:     d(price),
		Timestamp: time.Unix(at, 0),
	}
}

func (suite *PositionTestSuite) TestAverageEntryAndPartialClose() {
	p := Position{Symbol: "BTC/USDT"}

	trade := p.Apply(suite.fill(SideBuy, "1", "100", 1))
	suite.Equal(TradeEffectOpen, trade.Effect)
	suite.True(trade.PnL.IsZero())

	p.Apply(suite.fill(SideBuy, "1", "110", 2))
	suite.Equal(PositionSideLong, p.Side())
	suite.True(p.AverageEntryPrice.Equal(d("105")), p.AverageEntryPrice.String())
	suite.Equal(time.Unix(1, 0), p.OpenedAt)

	trade = p.Apply(suite.fill(SideSell, "0.5", "120", 3))
	suite.Equal(TradeEffectClose, trade.Effect)
	suite.True(trade.ClosedQuantity.Equal(d("0.5")))
	suite.True(trade.PnL.Equal(d("7.5")), trade.PnL.String())
	suite.True(p.Quantity.Equal(d("1.5")))
	suite.True(p.AverageEntryPrice.Equal(d("105")), "closing leaves the entry price alone")

	trade = p.Apply(suite.fill(SideSell, "1.5", "100", 4))
	suite.True(trade.PnL.Equal(d("-7.5")), trade.PnL.String())
	suite.Equal(PositionSideFlat, p.Side())
	suite.True(p.AverageEntryPrice.IsZero())
	suite.True(p.RealizedPnL.IsZero(), p.RealizedPnL.String())
	suite.Equal(time.Unix(4, 0), p.UpdatedAt)
}

func (suite *PositionTestSuite) TestShortRealizesOnBuyBack() {
	p := Position{Symbol: "BTC/USDT"}
	p.Apply(suite.fill(SideSell, "2", "100", 1))
	suite.Equal(PositionSideShort, p.Side())
	suite.True(p.Quantity.Equal(d("-2")))

	trade := p.Apply(suite.fill(SideBuy, "1", "90", 2))
	suite.True(trade.PnL.Equal(d("10")), trade.PnL.String())
	suite.True(p.RealizedPnL.Equal(d("10")))
	suite.True(p.UnrealizedPnL(d("95")).Equal(d("5")), p.UnrealizedPnL(d("95")).String())
}

func (suite *PositionTestSuite) TestFlipOpensOppositeSideAtFillPrice() {
	p := Position{Symbol: "BTC/USDT"}
	p.Apply(suite.fill(SideBuy, "1", "100", 1))

	trade := p.Apply(suite.fill(SideSell, "3", "110", 2))
	suite.Equal(TradeEffectFlip, trade.Effect)
	suite.True(trade.ClosedQuantity.Equal(d("1")))
	suite.True(trade.PnL.Equal(d("10")))
	suite.True(p.Quantity.Equal(d("-2")))
	suite.True(p.AverageEntryPrice.Equal(d("110")))
	suite.Equal(time.Unix(2, 0), p.OpenedAt)
}

func (suite *PositionTestSuite) TestFeesPerAssetAndCopy() {
	p := Position{Symbol: "BTC/USDT"}
	buy := suite.fill(SideBuy, "1", "100", 1)
	buy.Fee, buy.FeeAsset = d("0.001"), "BTC"
	sell := suite.fill(SideSell, "1", "101", 2)
	sell.Fee, sell.FeeAsset = d("0.1"), "USDT"

	p.Apply(buy)
	p.Apply(sell)
	suite.True(p.Fees["BTC"].Equal(d("0.001")))
	suite.True(p.Fees["USDT"].Equal(d("0.1")))

	c := p.Copy()
	c.Fees["USDT"] = d("9")
	suite.True(p.Fees["USDT"].Equal(d("0.1")))
}
