package feed

import (
	"time"

	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

func (suite *FeedTestSuite) TestMergeInterleavesByTimestamp() {
	btc := Slice([]Update{
		tick("BTC/USDT", 0, "99", "101"),
		tick("BTC/USDT", 2*time.Second, "99", "101"),
	})
	eth := Slice([]Update{
		tick("ETH/USDT", time.Second, "9", "11"),
		tick("ETH/USDT", 2*time.Second, "9", "11"),
		tick("ETH/USDT", 3*time.Second, "9", "11"),
	})

	got, err := Collect(Merge(btc, eth))
	suite.NoError(err)

	var order []string
	for _, u := range got {
		order = append(order, u.Symbol+"@"+u.Timestamp.Sub(epoch).String())
	}

	suite.Equal([]string{"BTC/USDT@0s", "ETH/USDT@1s", "BTC/USDT@2s", "ETH/USDT@2s", "ETH/USDT@3s"}, order)
}

func (suite *FeedTestSuite) TestMergeRejectsBackwardsInput() {
	backwards := func(yield func(Update, error) bool) {
		if !yield(tick("BTC/USDT", time.Second, "99", "101"), nil) {
			return
		}

		yield(tick("BTC/USDT", 0, "99", "101"), nil)
	}

	got, err := Collect(Merge(backwards, Slice([]Update{tick("ETH/USDT", 5*time.Second, "9", "11")})))
	suite.True(errors.HasCode(err, errors.ErrCodeFeedOutOfOrder))
	suite.Len(got, 1)
}

func (suite *FeedTestSuite) TestMergePropagatesSourceErrors() {
	failing := func(yield func(Update, error) bool) {
		yield(Update{}, errors.New(errors.ErrCodeFeedParse, "bad row"))
	}

	_, err := Collect(Merge(Slice([]Update{tick("BTC/USDT", 0, "99", "101")}), failing))
	suite.True(errors.HasCode(err, errors.ErrCodeFeedParse))
}

func (suite *FeedTestSuite) TestMergeOfNothingIsEmpty() {
	got, err := Collect(Merge())
	suite.NoError(err)
	suite.Empty(got)
}
