package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// quoteColumns are the columns every tabular feed must provide.
var quoteColumns = []string{"timestamp", "symbol", "bid", "ask", "last"}

// parseTimestamp accepts RFC 3339 or integer unix milliseconds.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	if millis, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC(), nil
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrCodeFeedParse, err, "invalid timestamp %q", value)
	}

	return t.UTC(), nil
}

// parsePrice parses an optional price column. Empty means zero.
func parsePrice(column, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}

	price, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeFeedParse, err, "invalid %s %q", column, value)
	}

	if price.IsNegative() {
		return decimal.Zero, errors.Newf(errors.ErrCodeFeedParse, "negative %s %q", column, value)
	}

	return price, nil
}

// quoteUpdate builds a ticker update from one row of quote columns.
func quoteUpdate(timestamp time.Time, symbol, bid, ask, last string) (Update, error) {
	if strings.TrimSpace(symbol) == "" {
		return Update{}, errors.New(errors.ErrCodeFeedParse, "row has no symbol")
	}

	ticker := types.Ticker{Symbol: strings.TrimSpace(symbol), Timestamp: timestamp}

	var err error
	if ticker.Bid, err = parsePrice("bid", bid); err != nil {
		return Update{}, err
	}

	if ticker.Ask, err = parsePrice("ask", ask); err != nil {
		return Update{}, err
	}

	if ticker.Last, err = parsePrice("last", last); err != nil {
		return Update{}, err
	}

	if ticker.Mark().IsZero() {
		return Update{}, errors.Newf(errors.ErrCodeFeedParse, "row for %s at %s has no price", ticker.Symbol, timestamp)
	}

	return TickerUpdate(ticker), nil
}

// DefaultBarSpread is the relative bid/ask spread placed around a bar close
// when a bar feed does not set one.
var DefaultBarSpread = decimal.RequireFromString("0.0002")

// barUpdate turns a bar close into a ticker quoted spread/2 either side.
func barUpdate(symbol string, timestamp time.Time, closePrice, spread decimal.Decimal) Update {
	if !spread.IsPositive() {
		spread = DefaultBarSpread
	}

	half := closePrice.Mul(spread).Div(decimal.NewFromInt(2))

	return TickerUpdate(types.Ticker{
		Symbol:    symbol,
		Bid:       closePrice.Sub(half),
		Ask:       closePrice.Add(half),
		Last:      closePrice,
		Timestamp: timestamp,
	})
}
