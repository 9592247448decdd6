// Package order owns the lifecycle of every order a strategy places: it
// mints client order IDs, drives venue calls through the governor, merges
// acknowledgments, execution reports and venue snapshots into one canonical
// state per order, and publishes the result.
package order

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/internal/governor"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

// Config configures a Manager.
type Config struct {
	// StrategyID is an opaque token used for attribution only.
	StrategyID string          `yaml:"strategy_id" json:"strategy_id"`
	Governor   governor.Config `yaml:"governor" json:"governor"`
}

type entry struct {
	order types.Order
	// placing is set while Submit waits for the venue; notifications for
	// the order are held back until it returns.
	placing  bool
	deferred []Notification
}

// Manager is the strategy-facing order API over one connector.
type Manager struct {
	connector exchange.Connector
	governor  *governor.Governor
	strategy  string
	logger    *logger.Logger
	now       func() time.Time
	newID     func() string

	mu            sync.Mutex
	orders        map[string]*entry
	active        map[string]*entry
	history       []string
	anomalies     []types.Anomaly
	log           []Notification
	seq           uint64
	subscribers   []subscriber
	subscriberSeq uint64
	fillSeq       map[string]int
	// unsettled holds canceled orders whose final fills are unconfirmed.
	unsettled map[string]struct{}
	positions map[string]*types.Position
	trades    []types.Trade
}

// NewManager creates a manager and registers it as the connector's
// execution handler.
func NewManager(connector exchange.Connector, config Config, log *logger.Logger) *Manager {
	named := log.Named("order").WithFields(
		zap.String("venue", connector.Venue()),
		zap.String("strategy", config.StrategyID),
	)

	m := &Manager{
		connector: connector,
		governor:  governor.New(connector.Session(), config.Governor, named),
		strategy:  config.StrategyID,
		logger:    named,
		now:       time.Now,
		newID:     uuid.NewString,
		orders:    make(map[string]*entry),
		active:    make(map[string]*entry),
		fillSeq:   make(map[string]int),
		unsettled: make(map[string]struct{}),
		positions: make(map[string]*types.Position),
	}

	connector.SetExecutionHandler(m.onExecution)

	return m
}

// Submit places an order and returns its client order ID. A request whose
// client order ID is already known returns that ID without contacting the
// venue. A placement the venue refuses leaves the order Rejected with the
// reason attached, and the error is returned alongside the ID.
func (m *Manager) Submit(ctx context.Context, req types.OrderRequest) (string, error) {
	if req.ClientOrderID == "" {
		req.ClientOrderID = m.newID()
	}

	if err := req.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()

	if _, exists := m.orders[req.ClientOrderID]; exists {
		m.mu.Unlock()
		m.logger.Debug("Duplicate submit ignored", zap.String("client_order_id", req.ClientOrderID))

		return req.ClientOrderID, nil
	}

	e := &entry{order: types.NewOrder(req, m.strategy, m.now()), placing: true}
	m.orders[req.ClientOrderID] = e
	m.active[req.ClientOrderID] = e
	m.record(EventStatus, e, nil, nil)
	order := snapshot(&e.order)
	m.mu.Unlock()

	log := m.logger.WithFields(zap.String("client_order_id", order.ClientOrderID), zap.String("symbol", order.Symbol))

	var ack types.OrderAck

	err := m.governor.Do(ctx, governor.Op{Name: "place_order", Idempotent: true}, func(ctx context.Context) error {
		var err error
		ack, err = m.connector.PlaceOrder(ctx, order)

		return err
	})

	if err != nil && errors.IsTransient(err) {
		// The venue may hold the order even though the answer was lost.
		if venueOrder, found := m.lookup(ctx, order); found {
			m.mu.Lock()
			m.mergeSnapshot(e, venueOrder)
			m.flush(e)
			m.mu.Unlock()

			log.Warn("Placement failed but venue holds the order", zap.Error(err))

			return order.ClientOrderID, nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.flush(e)

	if err != nil {
		switch {
		case e.order.Status == types.OrderStatusPending:
			reason := errors.GetCode(err).String() + ": " + err.Error()
			m.transition(e, types.OrderStatusRejected, reason, "placement")
			log.Warn("Order rejected", zap.String("reason", reason))
		case e.order.Status.IsTerminal():
			// Execution reports already settled the order.
		default:
			// Fills arrived before the failure; the order is live on the venue.
			m.addAnomaly(e, order.ClientOrderID, types.AnomalyInvalidEvent, "placement failed after fills: "+err.Error())
		}

		return order.ClientOrderID, err
	}

	m.mergeAck(e, ack)
	log.Info("Order placed", zap.String("status", string(e.order.Status)), zap.String("venue_order_id", e.order.VenueOrderID))

	return order.ClientOrderID, nil
}

// lookup asks the venue for an order after an ambiguous placement failure.
func (m *Manager) lookup(ctx context.Context, order types.Order) (types.Order, bool) {
	venueOrder, err := m.fetch(ctx, order.Symbol, order.ClientOrderID)
	if err != nil {
		return types.Order{}, false
	}

	return venueOrder, true
}

func (m *Manager) fetch(ctx context.Context, symbol string, clientOrderID string) (types.Order, error) {
	var venueOrder types.Order

	err := m.governor.Do(ctx, governor.Op{Name: "fetch_order", Idempotent: true}, func(ctx context.Context) error {
		var err error
		venueOrder, err = m.connector.FetchOrder(ctx, symbol, clientOrderID)

		return err
	})

	return venueOrder, err
}

// Cancel cancels an active order. Canceling a terminal order fails with
// AlreadyTerminal without contacting the venue; an unknown ID fails with
// NotFound.
func (m *Manager) Cancel(ctx context.Context, clientOrderID string) error {
	m.mu.Lock()

	e, ok := m.orders[clientOrderID]
	if !ok {
		m.mu.Unlock()

		return errors.Newf(errors.ErrCodeNotFound, "order %s not found", clientOrderID)
	}

	if e.order.Status.IsTerminal() {
		status := e.order.Status
		m.mu.Unlock()

		return errors.Newf(errors.ErrCodeAlreadyTerminal, "order %s is already %s", clientOrderID, status)
	}

	symbol := e.order.Symbol
	m.mu.Unlock()

	var ack types.OrderAck

	err := m.governor.Do(ctx, governor.Op{Name: "cancel_order", Idempotent: true}, func(ctx context.Context) error {
		var err error
		ack, err = m.connector.CancelOrder(ctx, symbol, clientOrderID)

		return err
	})

	if errors.HasCode(err, errors.ErrCodeAlreadyTerminal) {
		// The fill won the race; pull the final state.
		if rerr := m.reconcileOrder(ctx, clientOrderID); rerr != nil {
			m.logger.Warn("Reconcile after cancel race failed", zap.String("client_order_id", clientOrderID), zap.Error(rerr))
		}

		return err
	}

	if err != nil {
		m.logger.Warn("Cancel failed", zap.String("client_order_id", clientOrderID), zap.Error(err))

		return err
	}

	if ack.Reason == "" {
		ack.Reason = "canceled by strategy"
	}

	// Venues without execution push may have filled part of the order
	// before the cancel; the final snapshot carries those fills.
	venueOrder, ferr := m.fetch(ctx, symbol, clientOrderID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if ferr != nil {
		m.unsettled[clientOrderID] = struct{}{}
		m.logger.Warn("Canceled order awaits final fills", zap.String("client_order_id", clientOrderID), zap.Error(ferr))
	} else {
		if venueOrder.Status == ack.Status && venueOrder.Reason == "" {
			venueOrder.Reason = ack.Reason
		}

		m.mergeSnapshot(e, venueOrder)
	}

	if !e.order.Status.IsTerminal() {
		m.mergeAck(e, ack)
	}

	return nil
}

// CancelAll cancels every active order on symbol, or on every symbol when
// symbol is empty. Orders that finished while canceling are not errors.
func (m *Manager) CancelAll(ctx context.Context, symbol string) error {
	var errs []error

	for _, order := range m.Active() {
		if symbol != "" && order.Symbol != symbol {
			continue
		}

		if err := m.Cancel(ctx, order.ClientOrderID); err != nil && !errors.HasCode(err, errors.ErrCodeAlreadyTerminal) {
			errs = append(errs, err)
		}
	}

	return stderrors.Join(errs...)
}

// Get returns a snapshot of an order.
func (m *Manager) Get(clientOrderID string) (types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.orders[clientOrderID]
	if !ok {
		return types.Order{}, errors.Newf(errors.ErrCodeNotFound, "order %s not found", clientOrderID)
	}

	return snapshot(&e.order), nil
}

// Balances fetches the venue's balances.
func (m *Manager) Balances(ctx context.Context) (map[string]types.Balance, error) {
	var balances map[string]types.Balance

	err := m.governor.Do(ctx, governor.Op{Name: "fetch_balances", Idempotent: true}, func(ctx context.Context) error {
		var err error
		balances, err = m.connector.FetchBalances(ctx)

		return err
	})

	return balances, err
}

// Active returns the non-terminal orders in creation order.
func (m *Manager) Active() []types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Order, 0, len(m.active))
	for _, e := range m.active {
		out = append(out, snapshot(&e.order))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ClientOrderID < out[j].ClientOrderID
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

// History returns the terminal orders in the order they finished.
func (m *Manager) History() []types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Order, 0, len(m.history))
	for _, id := range m.history {
		out = append(out, snapshot(&m.orders[id].order))
	}

	return out
}

// Anomalies returns the recorded anomalies.
func (m *Manager) Anomalies() []types.Anomaly {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]types.Anomaly(nil), m.anomalies...)
}

// Reconcile merges the venue's view of every active order into local
// state, along with canceled orders whose final fills were never confirmed.
// Orders still being placed are skipped.
func (m *Manager) Reconcile(ctx context.Context) error {
	var errs []error

	ids := make([]string, 0)
	for _, order := range m.Active() {
		ids = append(ids, order.ClientOrderID)
	}

	m.mu.Lock()
	for id := range m.unsettled {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.reconcileOrder(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}

	return stderrors.Join(errs...)
}

func (m *Manager) reconcileOrder(ctx context.Context, clientOrderID string) error {
	m.mu.Lock()

	e, ok := m.orders[clientOrderID]
	if !ok || e.placing {
		m.mu.Unlock()

		return nil
	}

	order := snapshot(&e.order)
	m.mu.Unlock()

	venueOrder, err := m.fetch(ctx, order.Symbol, clientOrderID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			m.mu.Lock()
			delete(m.unsettled, clientOrderID)
			m.addAnomaly(e, clientOrderID, types.AnomalyUnknownOrder, "venue does not know the order")
			m.mu.Unlock()
		}

		return err
	}

	m.mu.Lock()
	delete(m.unsettled, clientOrderID)
	m.mergeSnapshot(e, venueOrder)
	m.mu.Unlock()

	return nil
}

// Session reports the connectivity and budget of the manager's venue.
func (m *Manager) Session() types.SessionInfo {
	return m.connector.Session().Info()
}

// Run reconciles active orders every interval until ctx is done. While the
// venue session is degraded or disconnected each tick tries to reconnect
// instead, and reconciles once the connection check passes.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !m.reconnect(ctx) {
				continue
			}

			if err := m.Reconcile(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("Reconcile failed", zap.Error(err))
			}
		}
	}
}

func (m *Manager) reconnect(ctx context.Context) bool {
	session := m.connector.Session()
	if session.Status() == types.VenueStatusConnected {
		return true
	}

	if err := session.Reconnect(ctx, m.connector.CheckConnection); err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("Reconnect failed", zap.Error(err))
		}

		return false
	}

	m.logger.Info("Reconnected to venue")

	return true
}
