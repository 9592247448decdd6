package feed

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

const polygonAggLimit = 50000

// AggIterator is the cursor returned by the Polygon aggregates endpoint.
type AggIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// AggLister lists aggregates for a request.
type AggLister func(ctx context.Context, params *models.ListAggsParams) AggIterator

// PolygonLister adapts a Polygon REST client.
func PolygonLister(client *polygon.Client) AggLister {
	return func(ctx context.Context, params *models.ListAggsParams) AggIterator {
		return client.ListAggs(ctx, params)
	}
}

// PolygonAggs replays Polygon aggregates as ticker updates stamped at each
// bar's start time.
type PolygonAggs struct {
	List       AggLister
	Ticker     string
	Symbol     string
	Multiplier int
	Timespan   models.Timespan
	Start      time.Time
	End        time.Time
	Spread     decimal.Decimal
}

// Feed iterates the aggregates between Start and End.
func (p PolygonAggs) Feed(ctx context.Context) Feed {
	return func(yield func(Update, error) bool) {
		//nolint:exhaustruct // third-party struct with many optional fields
		params := models.ListAggsParams{
			Ticker:     p.Ticker,
			Multiplier: p.Multiplier,
			Timespan:   p.Timespan,
			From:       models.Millis(p.Start),
			To:         models.Millis(p.End),
		}.WithLimit(polygonAggLimit)

		aggs := p.List(ctx, params)

		for aggs.Next() {
			agg := aggs.Item()

			if !yield(barUpdate(p.Symbol, time.Time(agg.Timestamp).UTC(), decimal.NewFromFloat(agg.Close), p.Spread), nil) {
				return
			}
		}

		if err := aggs.Err(); err != nil {
			yield(Update{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to list aggregates for %s", p.Ticker))
		}
	}
}
