package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/superalgorithm/superalgorithm/internal/exchange/binance"
	"github.com/superalgorithm/superalgorithm/internal/exchange/paper"
	"github.com/superalgorithm/superalgorithm/internal/feed"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/marketdata"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

const (
	formatCSV           = "csv"
	formatParquet       = "parquet"
	formatBinanceKlines = "binance-klines"
	formatPolygon       = "polygon"
	formatBinanceWS     = "binance-ws"

	defaultBinanceStream = "wss://stream.binance.com:9443/stream"
)

var feedFormats = []string{formatCSV, formatParquet, formatBinanceKlines, formatPolygon, formatBinanceWS}

// Source describes where the replay's market data comes from.
type Source struct {
	Format  string
	Path    string
	Symbols []string
	From    time.Time
	To      time.Time
	// Interval is a bar size such as 1m, 15m, 4h or 1d.
	Interval      string
	BinanceURL    string
	PolygonKey    string
	PolygonTicker string
	// SeedDepth is the number of Binance depth levels loaded into the
	// engine before following a live stream. Zero skips seeding.
	SeedDepth int
}

// Live reports whether the source is an unbounded stream.
func (s Source) Live() bool {
	return s.Format == formatBinanceWS
}

// Open returns the feed and a function releasing its resources.
func (s Source) Open(ctx context.Context, log *logger.Logger) (feed.Feed, func(), error) {
	noop := func() {}

	switch s.Format {
	case formatCSV:
		if s.Path == "" {
			return nil, nil, errors.New(errors.ErrCodeMissingParameter, "csv feeds need --feed")
		}

		return feed.CSVFile(s.Path), noop, nil
	case formatParquet:
		if s.Path == "" {
			return nil, nil, errors.New(errors.ErrCodeMissingParameter, "parquet feeds need --feed")
		}

		db, err := feed.OpenDuckDB(s.Path, feed.FormatParquet, log)
		if err != nil {
			return nil, nil, err
		}

		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Warn("Failed to close feed database", zap.Error(err))
			}
		}

		return db.Feed(ctx, feed.DuckDBQuery{Symbols: s.Symbols}), closeDB, nil
	case formatBinanceKlines:
		if err := s.requireRange(); err != nil {
			return nil, nil, err
		}

		client := binance.NewClient("", "", s.BinanceURL, false)
		feeds := make([]feed.Feed, 0, len(s.Symbols))

		for _, symbol := range s.Symbols {
			feeds = append(feeds, feed.BinanceKlines{
				Client:   client,
				Symbol:   symbol,
				Interval: s.Interval,
				Start:    s.From,
				End:      s.To,
			}.Feed(ctx))
		}

		return feed.Merge(feeds...), noop, nil
	case formatPolygon:
		if err := s.requireRange(); err != nil {
			return nil, nil, err
		}

		if len(s.Symbols) != 1 || s.PolygonTicker == "" {
			return nil, nil, errors.New(errors.ErrCodeMissingParameter, "polygon feeds need one --symbols entry and --polygon-ticker")
		}

		multiplier, timespan, err := polygonInterval(s.Interval)
		if err != nil {
			return nil, nil, err
		}

		aggs := feed.PolygonAggs{
			List:       feed.PolygonLister(polygon.New(s.PolygonKey)),
			Ticker:     s.PolygonTicker,
			Symbol:     s.Symbols[0],
			Multiplier: multiplier,
			Timespan:   timespan,
			Start:      s.From,
			End:        s.To,
		}

		return aggs.Feed(ctx), noop, nil
	case formatBinanceWS:
		if len(s.Symbols) == 0 {
			return nil, nil, errors.New(errors.ErrCodeMissingParameter, "live feeds need --symbols")
		}

		return s.stream(log).Feed(ctx), noop, nil
	default:
		return nil, nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown feed format %q", s.Format)
	}
}

func (s Source) requireRange() error {
	if len(s.Symbols) == 0 {
		return errors.Newf(errors.ErrCodeMissingParameter, "%s feeds need --symbols", s.Format)
	}

	if s.From.IsZero() || !s.To.After(s.From) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "%s feeds need --from before --to", s.Format)
	}

	return nil
}

// stream builds a combined bookTicker stream over every symbol. Path, when
// set, replaces the public endpoint.
func (s Source) stream(log *logger.Logger) *feed.WSStream {
	symbols := make(map[string]string, len(s.Symbols))
	streams := make([]string, 0, len(s.Symbols))

	for _, symbol := range s.Symbols {
		venueSymbol := binance.VenueSymbol(symbol)
		symbols[venueSymbol] = symbol
		streams = append(streams, strings.ToLower(venueSymbol)+"@bookTicker")
	}

	endpoint := s.Path
	if endpoint == "" {
		endpoint = defaultBinanceStream
	}

	return feed.NewWSStream(endpoint+"?streams="+strings.Join(streams, "/"), symbols, log)
}

// Seed loads the current Binance order book of every symbol into engine so
// a live run starts with depth instead of waiting for the first tick.
func (s Source) Seed(ctx context.Context, engine *paper.Engine, log *logger.Logger) error {
	if !s.Live() || s.SeedDepth <= 0 {
		return nil
	}

	provider := marketdata.NewBinanceProvider(binance.NewClient("", "", s.BinanceURL, false))

	for _, symbol := range s.Symbols {
		book, err := provider.GetOrderBookSnapshot(ctx, symbol, s.SeedDepth)
		if err != nil {
			return err
		}

		if err := engine.Apply(feed.BookUpdate(book)); err != nil {
			return err
		}

		log.Info("Seeded order book",
			zap.String("symbol", symbol),
			zap.Int("bids", len(book.Bids)),
			zap.Int("asks", len(book.Asks)))
	}

	return nil
}

// polygonInterval splits a bar size like 15m into Polygon's multiplier and
// timespan.
func polygonInterval(interval string) (int, models.Timespan, error) {
	if len(interval) < 2 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidParameter, "invalid interval %q", interval)
	}

	multiplier, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || multiplier < 1 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidParameter, "invalid interval %q", interval)
	}

	switch interval[len(interval)-1] {
	case 's':
		return multiplier, models.Second, nil
	case 'm':
		return multiplier, models.Minute, nil
	case 'h':
		return multiplier, models.Hour, nil
	case 'd':
		return multiplier, models.Day, nil
	case 'w':
		return multiplier, models.Week, nil
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidParameter, "invalid interval %q", interval)
	}
}

func formatList() string {
	return fmt.Sprintf("one of %s", strings.Join(feedFormats, ", "))
}
