package marketdata

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type TrackerTestSuite struct {
	suite.Suite
	tracker *Tracker
	start   time.Time
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

func (suite *TrackerTestSuite) SetupTest() {
	suite.tracker = NewTracker()
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *TrackerTestSuite) TestUnknownSymbol() {
	_, err := suite.tracker.Ticker("BTC/USDT")
	suite.True(errors.HasCode(err, errors.ErrCodeNoPriceData))
	suite.True(suite.tracker.Now().IsZero())
}

func (suite *TrackerTestSuite) TestClockIsHighestTimestampAcrossSymbols() {
	suite.Require().NoError(suite.tracker.Update(types.Ticker{Symbol: "BTC/USDT", Last: d("100"), Timestamp: suite.start.Add(time.Minute)}))
	suite.Require().NoError(suite.tracker.Update(types.Ticker{Symbol: "ETH/USDT", Last: d("10"), Timestamp: suite.start}))

	suite.Equal(suite.start.Add(time.Minute), suite.tracker.Now())
	suite.ElementsMatch([]string{"BTC/USDT", "ETH/USDT"}, suite.tracker.Symbols())
}

func (suite *TrackerTestSuite) TestRejectsOlderTicker() {
	suite.Require().NoError(suite.tracker.Update(types.Ticker{Symbol: "BTC/USDT", Last: d("100"), Timestamp: suite.start.Add(time.Second)}))

	err := suite.tracker.Update(types.Ticker{Symbol: "BTC/USDT", Last: d("90"), Timestamp: suite.start})
	suite.True(errors.HasCode(err, errors.ErrCodeFeedOutOfOrder))

	mark, err := suite.tracker.Mark("BTC/USDT")
	suite.Require().NoError(err)
	suite.True(mark.Equal(d("100")))
}

func (suite *TrackerTestSuite) TestMarkFallsBackToMid() {
	suite.Require().NoError(suite.tracker.Update(types.Ticker{Symbol: "BTC/USDT", Bid: d("99"), Ask: d("101"), Timestamp: suite.start}))

	mark, err := suite.tracker.Mark("BTC/USDT")
	suite.Require().NoError(err)
	suite.True(mark.Equal(d("100")))

	suite.Require().NoError(suite.tracker.Update(types.Ticker{Symbol: "ETH/USDT", Timestamp: suite.start}))
	_, err = suite.tracker.Mark("ETH/USDT")
	suite.True(errors.HasCode(err, errors.ErrCodeNoPriceData))
}

func (suite *TrackerTestSuite) TestConcurrentUpdates() {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			_ = suite.tracker.Update(types.Ticker{Symbol: "BTC/USDT", Last: d("100"), Timestamp: suite.start.Add(time.Duration(i) * time.Second)})
		}(i)
	}
	wg.Wait()

	suite.Equal(suite.start.Add(9*time.Second), suite.tracker.Now())
}
