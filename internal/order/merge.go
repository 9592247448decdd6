package order

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"go.uber.org/zap"
)

// rank orders the non-terminal statuses by progress. Acknowledgments and
// snapshots never move an order backwards.
func rank(status types.OrderStatus) int {
	switch status {
	case types.OrderStatusPending:
		return 0
	case types.OrderStatusOpen:
		return 1
	case types.OrderStatusPartiallyFilled:
		return 2
	default:
		return 3
	}
}

// retire moves a terminal order from the active set to the history.
// The caller holds m.mu.
func (m *Manager) retire(e *entry) {
	if _, ok := m.active[e.order.ClientOrderID]; !ok {
		return
	}

	delete(m.active, e.order.ClientOrderID)
	m.history = append(m.history, e.order.ClientOrderID)
}

// addAnomaly records an event that was not applied. e may be nil for
// unknown orders. The caller holds m.mu.
func (m *Manager) addAnomaly(e *entry, clientOrderID string, kind types.AnomalyKind, detail string) {
	anomaly := types.Anomaly{
		ClientOrderID: clientOrderID,
		Kind:          kind,
		Detail:        detail,
		Timestamp:     m.now(),
	}

	m.anomalies = append(m.anomalies, anomaly)
	m.record(EventAnomaly, e, nil, &anomaly)

	m.logger.Warn("Order anomaly",
		zap.String("client_order_id", clientOrderID),
		zap.String("kind", string(kind)),
		zap.String("detail", detail))
}

// transition applies a status change reported by the venue. Terminal
// states are sticky: a conflicting report for a finished order is an
// anomaly. The caller holds m.mu.
func (m *Manager) transition(e *entry, next types.OrderStatus, reason string, source string) {
	current := e.order.Status

	if current == next {
		return
	}

	if current.IsTerminal() {
		m.addAnomaly(e, e.order.ClientOrderID, types.AnomalyLateEvent,
			fmt.Sprintf("%s reported %s for %s order", source, next, current))

		return
	}

	if !next.IsTerminal() && rank(next) <= rank(current) {
		return
	}

	if err := e.order.Transition(next, reason, m.now()); err != nil {
		m.addAnomaly(e, e.order.ClientOrderID, types.AnomalyInvalidEvent, fmt.Sprintf("%s: %v", source, err))

		return
	}

	if next.IsTerminal() {
		m.retire(e)
	}

	m.record(EventStatus, e, nil, nil)
}

// mergeAck folds a placement or cancel acknowledgment into the order.
// Fill statuses are driven by fills and snapshots, so an acknowledgment
// reporting a fill only confirms the order is live. The caller holds m.mu.
func (m *Manager) mergeAck(e *entry, ack types.OrderAck) {
	if e.order.VenueOrderID == "" {
		e.order.VenueOrderID = ack.VenueOrderID
	}

	switch {
	case ack.Status == types.OrderStatusPending:
	case ack.Status == types.OrderStatusFilled || !ack.Status.IsTerminal():
		// An acknowledgment predates the fills that may have arrived since.
		if e.order.Status == types.OrderStatusPending {
			m.transition(e, types.OrderStatusOpen, "", "ack")
		}
	default:
		m.transition(e, ack.Status, ack.Reason, "ack")
	}
}

// applyFill applies one fill unless it repeats a trade ID or exceeds the
// remaining quantity. The caller holds m.mu.
func (m *Manager) applyFill(e *entry, fill types.Fill, source string) {
	id := e.order.ClientOrderID

	// Venue snapshots may list fills without the order's identity.
	fill.ClientOrderID = id
	if fill.Symbol == "" {
		fill.Symbol = e.order.Symbol
	}

	if fill.Side == "" {
		fill.Side = e.order.Side
	}

	if e.order.HasFill(fill.TradeID) {
		m.addAnomaly(e, id, types.AnomalyDuplicateFill, fmt.Sprintf("%s repeated trade %s", source, fill.TradeID))

		return
	}

	if e.order.Status.IsTerminal() {
		m.addAnomaly(e, id, types.AnomalyLateEvent,
			fmt.Sprintf("%s delivered trade %s for %s order", source, fill.TradeID, e.order.Status))

		return
	}

	if fill.Quantity.GreaterThan(e.order.Remaining()) {
		m.addAnomaly(e, id, types.AnomalyOverfill,
			fmt.Sprintf("%s trade %s of %s exceeds remaining %s", source, fill.TradeID, fill.Quantity, e.order.Remaining()))

		return
	}

	if err := e.order.ApplyFill(fill); err != nil {
		m.addAnomaly(e, id, types.AnomalyInvalidEvent, fmt.Sprintf("%s trade %s: %v", source, fill.TradeID, err))

		return
	}

	m.book(fill)

	if e.order.Status.IsTerminal() {
		m.retire(e)
	}

	m.record(EventFill, e, &fill, nil)
}

// onExecution is the connector's execution handler.
func (m *Manager) onExecution(report types.ExecutionReport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.orders[report.ClientOrderID]
	if !ok {
		m.addAnomaly(nil, report.ClientOrderID, types.AnomalyUnknownOrder,
			fmt.Sprintf("%s report for unknown order", report.Kind))

		return
	}

	if e.order.VenueOrderID == "" {
		e.order.VenueOrderID = report.VenueOrderID
	}

	switch report.Kind {
	case types.ExecutionFill:
		m.applyFill(e, report.Fill, "execution report")
	case types.ExecutionCanceled:
		m.transition(e, types.OrderStatusCanceled, report.Reason, "execution report")
	case types.ExecutionRejected:
		m.transition(e, types.OrderStatusRejected, report.Reason, "execution report")
	default:
		m.addAnomaly(e, report.ClientOrderID, types.AnomalyInvalidEvent, fmt.Sprintf("unknown report kind %q", report.Kind))
	}
}

// mergeSnapshot folds the venue's view of an order into local state. Fills
// listed by trade ID are applied individually; cumulative quantity the
// listed fills do not explain is applied as one synthetic fill at the
// implied price. The caller holds m.mu.
func (m *Manager) mergeSnapshot(e *entry, venue types.Order) {
	id := e.order.ClientOrderID

	if e.order.VenueOrderID == "" {
		e.order.VenueOrderID = venue.VenueOrderID
	}

	if e.order.Status.IsTerminal() {
		if venue.Status != e.order.Status || !venue.FilledQuantity.Equal(e.order.FilledQuantity) {
			m.addAnomaly(e, id, types.AnomalyLateEvent,
				fmt.Sprintf("venue reports %s with %s filled for %s order", venue.Status, venue.FilledQuantity, e.order.Status))
		}

		return
	}

	if venue.FilledQuantity.GreaterThan(e.order.Quantity) {
		m.addAnomaly(e, id, types.AnomalyOverfill,
			fmt.Sprintf("venue reports %s filled of %s", venue.FilledQuantity, e.order.Quantity))

		return
	}

	for _, fill := range venue.Fills {
		if !e.order.HasFill(fill.TradeID) {
			m.applyFill(e, fill, "snapshot")
		}
	}

	switch {
	case venue.FilledQuantity.LessThan(e.order.FilledQuantity):
		m.addAnomaly(e, id, types.AnomalyFilledRegress,
			fmt.Sprintf("venue reports %s filled, local state has %s", venue.FilledQuantity, e.order.FilledQuantity))

		return
	case venue.FilledQuantity.GreaterThan(e.order.FilledQuantity):
		m.applyFill(e, m.impliedFill(e, venue), "snapshot")
	}

	switch venue.Status {
	case types.OrderStatusCanceled, types.OrderStatusRejected:
		m.transition(e, venue.Status, venue.Reason, "snapshot")
	case types.OrderStatusOpen:
		m.transition(e, types.OrderStatusOpen, "", "snapshot")
	case types.OrderStatusFilled, types.OrderStatusPartiallyFilled:
		// Reached through the fills above.
	}
}

// impliedFill builds the fill that brings the local cumulative quantity,
// notional and fee up to the venue's.
func (m *Manager) impliedFill(e *entry, venue types.Order) types.Fill {
	delta := venue.FilledQuantity.Sub(e.order.FilledQuantity)
	notional := venue.AveragePrice.Mul(venue.FilledQuantity).Sub(e.order.AveragePrice.Mul(e.order.FilledQuantity))

	fee := venue.Fee.Sub(e.order.Fee)
	if fee.IsNegative() {
		fee = decimal.Zero
	}

	price := venue.Price
	if notional.IsPositive() {
		price = notional.Div(delta)
	}

	m.fillSeq[e.order.ClientOrderID]++

	timestamp := venue.UpdatedAt
	if timestamp.IsZero() {
		timestamp = m.now()
	}

	return types.Fill{
		TradeID:       fmt.Sprintf("%s-sync-%d", e.order.ClientOrderID, m.fillSeq[e.order.ClientOrderID]),
		ClientOrderID: e.order.ClientOrderID,
		Symbol:        e.order.Symbol,
		Side:          e.order.Side,
		Price:         price,
		Quantity:      delta,
		Fee:           fee,
		FeeAsset:      venue.FeeAsset,
		Liquidity:     types.LiquidityTaker,
		Timestamp:     timestamp,
	}
}
