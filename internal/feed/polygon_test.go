package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

type fakeAggs struct {
	aggs  []models.Agg
	err   error
	index int
}

func (f *fakeAggs) Next() bool {
	if f.index >= len(f.aggs) {
		return false
	}

	f.index++

	return true
}

func (f *fakeAggs) Item() models.Agg { return f.aggs[f.index-1] }

func (f *fakeAggs) Err() error { return f.err }

func (suite *FeedTestSuite) TestPolygonAggs() {
	var params *models.ListAggsParams

	aggs := &fakeAggs{aggs: []models.Agg{
		{Close: 100, Timestamp: models.Millis(epoch)},
		{Close: 101.5, Timestamp: models.Millis(epoch.Add(time.Minute))},
	}}

	source := PolygonAggs{
		List: func(_ context.Context, p *models.ListAggsParams) AggIterator {
			params = p

			return aggs
		},
		Ticker:     "X:BTCUSD",
		Symbol:     "BTC/USD",
		Multiplier: 1,
		Timespan:   models.Minute,
		Start:      epoch,
		End:        epoch.Add(time.Hour),
	}

	got, err := Collect(source.Feed(context.Background()))
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal("X:BTCUSD", params.Ticker)
	suite.Equal(models.Minute, params.Timespan)
	suite.Equal("BTC/USD", got[1].Symbol)
	suite.True(got[1].Ticker.Last.Equal(d("101.5")))
	suite.True(got[1].Timestamp.Equal(epoch.Add(time.Minute)))
}

func (suite *FeedTestSuite) TestPolygonAggsError() {
	source := PolygonAggs{
		List: func(context.Context, *models.ListAggsParams) AggIterator {
			return &fakeAggs{err: fmt.Errorf("unauthorized")}
		},
		Ticker: "X:BTCUSD",
		Symbol: "BTC/USD",
	}

	_, err := Collect(source.Feed(context.Background()))
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}
