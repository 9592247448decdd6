// Package exchange defines the contract every venue connector satisfies,
// the venue session each connector owns, and helpers shared by live
// connectors.
package exchange

import (
	"context"

	"github.com/superalgorithm/superalgorithm/internal/types"
)

// Connector places, cancels and queries orders on one venue.
//
// All implementations share the same guarantees:
//   - PlaceOrder is idempotent on the client order ID; a repeated call returns
//     the original acknowledgment and never creates a second order.
//   - CancelOrder on a filled, canceled or rejected order fails with
//     AlreadyTerminal; on an unknown order with NotFound.
//   - Failures are coded errors from pkg/errors: VenueRejected,
//     InsufficientBalance, RateLimited, Disconnected, Timeout, NotFound,
//     AlreadyTerminal.
type Connector interface {
	// Venue returns the venue name used in logs and session info.
	Venue() string
	// Session returns the venue session owned by this connector.
	Session() *Session
	// PlaceOrder submits the order and returns the venue acknowledgment.
	PlaceOrder(ctx context.Context, order types.Order) (types.OrderAck, error)
	// CancelOrder cancels an open order by client order ID.
	CancelOrder(ctx context.Context, symbol string, clientOrderID string) (types.OrderAck, error)
	// FetchOrder returns the venue's view of an order.
	FetchOrder(ctx context.Context, symbol string, clientOrderID string) (types.Order, error)
	// FetchBalances returns free and locked amounts per asset.
	FetchBalances(ctx context.Context) (map[string]types.Balance, error)
	// CheckConnection verifies the venue is reachable.
	CheckConnection(ctx context.Context) error
	// SetExecutionHandler registers the receiver of asynchronous execution
	// reports. Connectors without a push channel never call it.
	SetExecutionHandler(handler types.ExecutionHandler)
}
