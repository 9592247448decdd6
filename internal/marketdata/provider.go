// Package marketdata is the boundary between strategies and the sources of
// prices, books and balances.
package marketdata

import (
	"context"

	"github.com/superalgorithm/superalgorithm/internal/types"
)

// DataProvider supplies market data for a venue.
type DataProvider interface {
	// GetTicker returns the latest best bid, best ask and last price.
	GetTicker(ctx context.Context, symbol string) (types.Ticker, error)
	// GetOrderBookSnapshot returns up to depth levels per side.
	GetOrderBookSnapshot(ctx context.Context, symbol string, depth int) (types.BookSnapshot, error)
	// GetBalanceSnapshot returns free and locked balances per asset.
	GetBalanceSnapshot(ctx context.Context) (map[string]types.Balance, error)
}
