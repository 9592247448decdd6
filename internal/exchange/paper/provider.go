package paper

import (
	"context"

	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// GetTicker returns the best bid, best ask and last price of symbol.
func (e *Engine) GetTicker(_ context.Context, symbol string) (types.Ticker, error) {
	m := e.lookup(symbol)
	if m == nil {
		return types.Ticker{}, errors.Newf(errors.ErrCodeNoPriceData, "no market data for %s", symbol)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := types.Ticker{Symbol: symbol, Last: m.lastPrice, Timestamp: e.clock(m)}
	if l := m.book.best(types.SideBuy); l != nil {
		t.Bid = l.price
	}

	if l := m.book.best(types.SideSell); l != nil {
		t.Ask = l.price
	}

	return t, nil
}

// GetOrderBookSnapshot aggregates the book of symbol, strategy orders
// included. depth <= 0 returns every level.
func (e *Engine) GetOrderBookSnapshot(_ context.Context, symbol string, depth int) (types.BookSnapshot, error) {
	m := e.lookup(symbol)
	if m == nil {
		return types.BookSnapshot{}, errors.Newf(errors.ErrCodeNoPriceData, "no market data for %s", symbol)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bids, asks := m.book.snapshot(depth)

	return types.BookSnapshot{Symbol: symbol, Bids: bids, Asks: asks, Timestamp: e.clock(m)}, nil
}

// GetBalanceSnapshot returns the ledger.
func (e *Engine) GetBalanceSnapshot(ctx context.Context) (map[string]types.Balance, error) {
	return e.FetchBalances(ctx)
}
