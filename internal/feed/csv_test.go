package feed

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

func (suite *FeedTestSuite) TestCSVReadsRowsInAnyColumnOrder() {
	input := strings.Join([]string{
		"symbol,timestamp,last,bid,ask,volume",
		"BTC/USDT,2024-01-01T00:00:00Z,100,99.5,100.5,3",
		"BTC/USDT,1704067201000,,99,101,1",
	}, "\n")

	got, err := Collect(CSV(strings.NewReader(input)))
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)

	first := got[0]
	suite.Equal("BTC/USDT", first.Symbol)
	suite.True(first.Timestamp.Equal(epoch))
	suite.True(first.Ticker.Bid.Equal(d("99.5")))
	suite.True(first.Ticker.Ask.Equal(d("100.5")))
	suite.True(first.Ticker.Last.Equal(d("100")))

	suite.True(got[1].Ticker.Last.IsZero())
	suite.Equal(int64(1000), got[1].Timestamp.Sub(epoch).Milliseconds())
}

func (suite *FeedTestSuite) TestCSVErrors() {
	tests := []struct {
		name  string
		input string
		code  errors.ErrorCode
		rows  int
	}{
		{name: "empty", input: "", code: errors.ErrCodeFeedParse},
		{name: "missing column", input: "timestamp,symbol,bid,ask\n", code: errors.ErrCodeFeedParse},
		{
			name:  "bad price",
			input: "timestamp,symbol,bid,ask,last\n1704067200000,BTC/USDT,abc,101,100\n",
			code:  errors.ErrCodeFeedParse,
		},
		{
			name:  "no price",
			input: "timestamp,symbol,bid,ask,last\n1704067200000,BTC/USDT,,,\n",
			code:  errors.ErrCodeFeedParse,
		},
		{
			name:  "negative price",
			input: "timestamp,symbol,bid,ask,last\n1704067200000,BTC/USDT,-1,101,100\n",
			code:  errors.ErrCodeFeedParse,
		},
		{
			name:  "out of order",
			input: "timestamp,symbol,bid,ask,last\n1704067201000,BTC/USDT,99,101,100\n1704067200000,BTC/USDT,99,101,100\n",
			code:  errors.ErrCodeFeedOutOfOrder,
			rows:  1,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			got, err := Collect(CSV(strings.NewReader(tc.input)))
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
			suite.Len(got, tc.rows)
		})
	}
}

func (suite *FeedTestSuite) TestCSVFile() {
	path := filepath.Join(suite.T().TempDir(), "quotes.csv")
	suite.Require().NoError(os.WriteFile(path, []byte("timestamp,symbol,bid,ask,last\n1704067200000,ETH/USDT,9,11,10\n"), 0o600))

	got, err := Collect(CSVFile(path))
	suite.NoError(err)
	suite.Len(got, 1)

	_, err = Collect(CSVFile(filepath.Join(suite.T().TempDir(), "missing.csv")))
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}
