package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// Ticker is the top of book and last trade of a symbol.
type Ticker struct {
	Symbol    string          `json:"symbol" yaml:"symbol"`
	Bid       decimal.Decimal `json:"bid" yaml:"bid"`
	Ask       decimal.Decimal `json:"ask" yaml:"ask"`
	Last      decimal.Decimal `json:"last" yaml:"last"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
}

// Mark returns the last price, or the mid price when no trade was seen.
func (t Ticker) Mark() decimal.Decimal {
	if t.Last.IsPositive() {
		return t.Last
	}

	if t.Bid.IsPositive() && t.Ask.IsPositive() {
		return t.Bid.Add(t.Ask).Div(decimal.NewFromInt(2))
	}

	if t.Bid.IsPositive() {
		return t.Bid
	}

	return t.Ask
}

// BookLevel is the aggregate quantity resting at one price.
type BookLevel struct {
	Price    decimal.Decimal `json:"price" yaml:"price"`
	Quantity decimal.Decimal `json:"quantity" yaml:"quantity"`
}

// BookSnapshot is an order book view. Bids are descending, asks ascending.
type BookSnapshot struct {
	Symbol    string      `json:"symbol" yaml:"symbol"`
	Bids      []BookLevel `json:"bids" yaml:"bids"`
	Asks      []BookLevel `json:"asks" yaml:"asks"`
	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`
}

// SplitSymbol splits a BASE/QUOTE symbol into its assets.
func SplitSymbol(symbol string) (base string, quote string, err error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Newf(errors.ErrCodeInvalidSymbol, "symbol %q is not BASE/QUOTE", symbol)
	}

	return parts[0], parts[1], nil
}
