// Package feed produces ordered market data updates for the paper venue,
// either replayed from files and historical APIs or streamed live.
package feed

import (
	"iter"
	"time"

	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// Update is one market data observation for a symbol. Exactly one of Ticker
// and Book is set.
type Update struct {
	Symbol    string
	Timestamp time.Time
	Ticker    *types.Ticker
	Book      *types.BookSnapshot
}

// Feed yields updates in timestamp order. A non-nil error ends the feed.
type Feed = iter.Seq2[Update, error]

// TickerUpdate wraps a ticker.
func TickerUpdate(t types.Ticker) Update {
	return Update{Symbol: t.Symbol, Timestamp: t.Timestamp, Ticker: &t}
}

// BookUpdate wraps a book snapshot.
func BookUpdate(b types.BookSnapshot) Update {
	return Update{Symbol: b.Symbol, Timestamp: b.Timestamp, Book: &b}
}

// Validate checks that the update carries exactly one payload for a symbol.
func (u Update) Validate() error {
	if u.Symbol == "" {
		return errors.New(errors.ErrCodeMissingParameter, "update symbol is required")
	}

	if (u.Ticker == nil) == (u.Book == nil) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "update for %s must carry exactly one of ticker or book", u.Symbol)
	}

	return nil
}
