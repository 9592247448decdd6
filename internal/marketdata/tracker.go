package marketdata

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// Tracker keeps the latest ticker per symbol. The highest timestamp seen
// across all symbols serves as the replay clock.
type Tracker struct {
	mu      sync.RWMutex
	tickers map[string]types.Ticker
	clock   time.Time
}

func NewTracker() *Tracker {
	return &Tracker{tickers: make(map[string]types.Ticker)}
}

// Update records t. A ticker older than the last one for its symbol is
// rejected with FeedOutOfOrder and leaves the tracker unchanged.
func (t *Tracker) Update(ticker types.Ticker) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.tickers[ticker.Symbol]; ok && ticker.Timestamp.Before(prev.Timestamp) {
		return errors.Newf(errors.ErrCodeFeedOutOfOrder, "%s ticker at %s is older than %s",
			ticker.Symbol, ticker.Timestamp.Format(time.RFC3339Nano), prev.Timestamp.Format(time.RFC3339Nano))
	}

	t.tickers[ticker.Symbol] = ticker
	if ticker.Timestamp.After(t.clock) {
		t.clock = ticker.Timestamp
	}

	return nil
}

// Ticker returns the latest ticker for symbol.
func (t *Tracker) Ticker(symbol string) (types.Ticker, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ticker, ok := t.tickers[symbol]
	if !ok {
		return types.Ticker{}, errors.Newf(errors.ErrCodeNoPriceData, "no price data for %s", symbol)
	}

	return ticker, nil
}

// Mark returns the mark price of symbol.
func (t *Tracker) Mark(symbol string) (decimal.Decimal, error) {
	ticker, err := t.Ticker(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	mark := ticker.Mark()
	if !mark.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodeNoPriceData, "no price for %s", symbol)
	}

	return mark, nil
}

// Now returns the highest timestamp observed, zero before any update.
func (t *Tracker) Now() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.clock
}

// Symbols returns the symbols with a ticker.
func (t *Tracker) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.tickers))
	for s := range t.tickers {
		out = append(out, s)
	}

	return out
}
