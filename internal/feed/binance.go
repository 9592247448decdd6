package feed

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange/binance"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

const binanceKlineLimit = 1000

// BinanceKlines replays Binance candles as ticker updates stamped at each
// bar's close time.
type BinanceKlines struct {
	Client   binance.Client
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
	// Spread is the relative spread quoted around each close.
	Spread decimal.Decimal
}

// Feed pages through the klines between Start and End.
func (b BinanceKlines) Feed(ctx context.Context) Feed {
	return func(yield func(Update, error) bool) {
		venueSymbol := binance.VenueSymbol(b.Symbol)
		cursor := b.Start.UnixMilli()
		end := b.End.UnixMilli()

		for cursor < end {
			klines, err := b.Client.NewKlinesService().
				Symbol(venueSymbol).
				Interval(b.Interval).
				StartTime(cursor).
				EndTime(end).
				Limit(binanceKlineLimit).
				Do(ctx)
			if err != nil {
				yield(Update{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s", b.Symbol))

				return
			}

			for _, k := range klines {
				closePrice, err := decimal.NewFromString(k.Close)
				if err != nil {
					yield(Update{}, errors.Wrapf(errors.ErrCodeFeedParse, err, "invalid kline close %q", k.Close))

					return
				}

				if !yield(barUpdate(b.Symbol, time.UnixMilli(k.CloseTime).UTC(), closePrice, b.Spread), nil) {
					return
				}

				cursor = k.CloseTime + 1
			}

			if len(klines) < binanceKlineLimit {
				return
			}
		}
	}
}
