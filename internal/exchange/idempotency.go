package exchange

import (
	"context"
	"sync"

	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// LookupFunc queries the venue for an order by client order ID. It reports
// found=false when the venue does not know the order.
type LookupFunc func(ctx context.Context) (ack types.OrderAck, found bool, err error)

// PlaceFunc submits the order to the venue.
type PlaceFunc func(ctx context.Context) (types.OrderAck, error)

type placement struct {
	mu        sync.Mutex
	ack       types.OrderAck
	acked     bool
	ambiguous bool
}

// Placer makes venue placement idempotent on the client order ID. Live
// venues may or may not deduplicate client IDs themselves, and a timed out
// request may still have created the order; the placer covers both cases.
type Placer struct {
	mu     sync.Mutex
	orders map[string]*placement
}

// NewPlacer creates an empty placer.
func NewPlacer() *Placer {
	return &Placer{orders: make(map[string]*placement)}
}

func (p *Placer) entry(clientOrderID string) *placement {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.orders[clientOrderID]
	if !ok {
		e = &placement{}
		p.orders[clientOrderID] = e
	}

	return e
}

// Place returns the cached acknowledgment for clientOrderID if there is one.
// After an ambiguous transport failure it asks the venue before placing again.
// Concurrent calls for the same ID are serialized.
func (p *Placer) Place(ctx context.Context, clientOrderID string, lookup LookupFunc, place PlaceFunc) (types.OrderAck, error) {
	if clientOrderID == "" {
		return types.OrderAck{}, errors.New(errors.ErrCodeMissingParameter, "client order id is required")
	}

	e := p.entry(clientOrderID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.acked {
		return e.ack, nil
	}

	if e.ambiguous {
		ack, found, err := lookup(ctx)
		if err != nil {
			return types.OrderAck{}, err
		}

		if found {
			e.ack, e.acked, e.ambiguous = ack, true, false

			return ack, nil
		}
	}

	ack, err := place(ctx)
	if err != nil {
		if errors.IsTransient(err) {
			e.ambiguous = true
		}

		return types.OrderAck{}, err
	}

	e.ack, e.acked, e.ambiguous = ack, true, false

	return ack, nil
}
