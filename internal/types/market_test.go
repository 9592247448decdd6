package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) TestSplitSymbol() {
	base, quote, err := SplitSymbol("ETH/USDT")
	suite.NoError(err)
	suite.Equal("ETH", base)
	suite.Equal("USDT", quote)

	for _, bad := range []string{"ETHUSDT", "ETH/", "/USDT", "A/B/C"} {
		_, _, err := SplitSymbol(bad)
		suite.Error(err, bad)
	}
}

func (suite *MarketTestSuite) TestMark() {
	suite.True(Ticker{Bid: d("99"), Ask: d("101"), Last: d("100.5")}.Mark().Equal(d("100.5")))
	suite.True(Ticker{Bid: d("99"), Ask: d("101")}.Mark().Equal(d("100")))
	suite.True(Ticker{Bid: d("99")}.Mark().Equal(d("99")))
	suite.True(Ticker{Ask: d("101")}.Mark().Equal(d("101")))
}

func (suite *MarketTestSuite) TestBalanceTotal() {
	b := Balance{Asset: "USDT", Free: d("10"), Locked: d("2.5")}
	suite.True(b.Total().Equal(d("12.5")))
}
