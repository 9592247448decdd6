package feed

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

func (suite *FeedTestSuite) writeQuotes() string {
	path := filepath.Join(suite.T().TempDir(), "quotes.csv")
	content := "timestamp,symbol,bid,ask,last\n" +
		"2024-01-01 00:00:02,BTC/USDT,100,102,101\n" +
		"2024-01-01 00:00:00,BTC/USDT,99.5,100.5,100\n" +
		"2024-01-01 00:00:01,ETH/USDT,9,11,10\n"
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (suite *FeedTestSuite) TestDuckDBFeedOrdersByTimestamp() {
	source, err := OpenDuckDB(suite.writeQuotes(), FormatCSV, logger.NewNop())
	suite.Require().NoError(err)
	defer source.Close()

	got, err := Collect(source.Feed(context.Background(), DuckDBQuery{}))
	suite.Require().NoError(err)
	suite.Require().Len(got, 3)
	suite.Equal("BTC/USDT", got[0].Symbol)
	suite.True(got[0].Ticker.Bid.Equal(d("99.5")))
	suite.Equal("ETH/USDT", got[1].Symbol)
	suite.True(got[2].Ticker.Last.Equal(d("101")))
	suite.True(got[0].Timestamp.Equal(epoch))
}

func (suite *FeedTestSuite) TestDuckDBFeedFilters() {
	source, err := OpenDuckDB(suite.writeQuotes(), FormatCSV, logger.NewNop())
	suite.Require().NoError(err)
	defer source.Close()

	got, err := Collect(source.Feed(context.Background(), DuckDBQuery{
		Symbols: []string{"BTC/USDT"},
		Start:   optional.Some(epoch.Add(time.Second)),
	}))
	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.True(got[0].Timestamp.Equal(epoch.Add(2 * time.Second)))
}

func (suite *FeedTestSuite) TestDuckDBBuildQuery() {
	query, args, err := (&DuckDB{sq: newStatementBuilder()}).buildQuery(DuckDBQuery{
		Symbols: []string{"BTC/USDT"},
		End:     optional.Some(epoch),
	})
	suite.NoError(err)
	suite.Contains(query, "FROM quotes WHERE symbol IN ($1) AND timestamp <= $2 ORDER BY timestamp ASC, symbol ASC")
	suite.Equal([]any{"BTC/USDT", epoch}, args)
}

func (suite *FeedTestSuite) TestOpenDuckDBErrors() {
	_, err := OpenDuckDB("quotes.json", FileFormat("json"), logger.NewNop())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = OpenDuckDB(filepath.Join(suite.T().TempDir(), "missing.parquet"), FormatParquet, logger.NewNop())
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}
