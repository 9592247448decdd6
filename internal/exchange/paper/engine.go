// Package paper simulates a venue: a per-symbol limit order book fed by
// market data, a balance ledger and a fee model behind the connector
// contract.
package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

// VenueName is the name the paper venue reports.
const VenueName = "paper"

type paperOrder struct {
	order types.Order
	// restPrice is the book price of the order while it rests.
	restPrice decimal.Decimal
	resting   bool
	lockAsset string
	// reserved is what is still locked for the order. It drops to zero
	// exactly once, when the order becomes terminal.
	reserved decimal.Decimal
	// err is the placement failure, returned again on a repeated placement.
	err error
}

func (po *paperOrder) ack() types.OrderAck {
	return types.OrderAck{
		ClientOrderID: po.order.ClientOrderID,
		VenueOrderID:  po.order.VenueOrderID,
		Status:        po.order.Status,
		Reason:        po.order.Reason,
		Timestamp:     po.order.UpdatedAt,
	}
}

// market is the matching state of one symbol. Every field is guarded by mu.
type market struct {
	mu     sync.Mutex
	symbol string
	base   string
	quote  string
	book   *book
	orders map[string]*paperOrder

	orderSeq     uint64
	tradeSeq     uint64
	syntheticSeq uint64

	lastPrice decimal.Decimal
	clock     time.Time
}

func (m *market) nextTradeID() string {
	m.tradeSeq++
	return fmt.Sprintf("%s-T%d", m.symbol, m.tradeSeq)
}

// Engine is the paper matching engine. Matching is serialized per symbol;
// balances are locked per asset; there is no engine-wide lock on the
// matching path.
//
// Execution reports are delivered synchronously while the symbol is locked,
// so the handler must not call back into the engine.
type Engine struct {
	config  Config
	fees    FeeModel
	ledger  *Ledger
	session *exchange.Session
	logger  *logger.Logger
	now     func() time.Time

	// mu guards the market and owner indexes only.
	mu      sync.RWMutex
	markets map[string]*market
	owners  map[string]string

	handlerMu sync.RWMutex
	handler   types.ExecutionHandler
}

var _ exchange.Connector = (*Engine)(nil)

// NewEngine creates a paper venue from a validated config.
func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		config:  config,
		fees:    NewFeeModel(config.Fees),
		ledger:  NewLedger(config.Balances),
		session: exchange.NewSession(VenueName, config.Session, log),
		logger:  log.Named("paper"),
		now:     time.Now,
		markets: make(map[string]*market),
		owners:  make(map[string]string),
	}, nil
}

func (e *Engine) Venue() string {
	return VenueName
}

func (e *Engine) Session() *exchange.Session {
	return e.session
}

func (e *Engine) SetExecutionHandler(handler types.ExecutionHandler) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()

	e.handler = handler
}

func (e *Engine) emit(report types.ExecutionReport) {
	e.handlerMu.RLock()
	handler := e.handler
	e.handlerMu.RUnlock()

	if handler != nil {
		handler(report)
	}
}

// CheckConnection always succeeds unless ctx is done.
func (e *Engine) CheckConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeDisconnected, "paper venue check aborted", err)
	}

	return nil
}

// PlaceOrder admits, matches and, depending on the time in force, rests the
// order. A repeated client order ID returns the original outcome.
func (e *Engine) PlaceOrder(ctx context.Context, order types.Order) (types.OrderAck, error) {
	if err := e.delay(ctx); err != nil {
		return types.OrderAck{}, err
	}

	if err := checkOrder(order); err != nil {
		return types.OrderAck{}, err
	}

	m, err := e.market(order.Symbol)
	if err != nil {
		return types.OrderAck{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if po, ok := m.orders[order.ClientOrderID]; ok {
		return po.ack(), po.err
	}

	if err := e.claim(order.ClientOrderID, m.symbol); err != nil {
		return types.OrderAck{}, err
	}

	now := e.clock(m)
	po := &paperOrder{order: newVenueOrder(order, m, now)}
	m.orders[order.ClientOrderID] = po

	log := e.logger.WithFields(
		zap.String("client_order_id", order.ClientOrderID),
		zap.String("symbol", m.symbol),
	)

	if err := e.admit(m, po, now); err != nil {
		po.err = err
		_ = po.order.Transition(types.OrderStatusRejected, err.Error(), now)
		log.Info("Order rejected", zap.Error(err))

		return po.ack(), err
	}

	e.match(m, po, now)
	e.settleRemainder(m, po, now)

	log.Debug("Order placed",
		zap.String("status", string(po.order.Status)),
		zap.String("filled", po.order.FilledQuantity.String()),
	)

	return po.ack(), nil
}

// CancelOrder cancels a working order. symbol may be empty when the client
// order ID is known to the engine.
func (e *Engine) CancelOrder(ctx context.Context, symbol string, clientOrderID string) (types.OrderAck, error) {
	if err := e.delay(ctx); err != nil {
		return types.OrderAck{}, err
	}

	m, err := e.owner(symbol, clientOrderID)
	if err != nil {
		return types.OrderAck{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	po, ok := m.orders[clientOrderID]
	if !ok {
		return types.OrderAck{}, errors.Newf(errors.ErrCodeNotFound, "order %s not found on %s", clientOrderID, m.symbol)
	}

	if po.order.Status.IsTerminal() {
		return po.ack(), errors.Newf(errors.ErrCodeAlreadyTerminal, "order %s is already %s", clientOrderID, po.order.Status)
	}

	e.cancel(m, po, "canceled by request", e.clock(m))

	return po.ack(), nil
}

// FetchOrder returns a snapshot of the order.
func (e *Engine) FetchOrder(ctx context.Context, symbol string, clientOrderID string) (types.Order, error) {
	if err := e.delay(ctx); err != nil {
		return types.Order{}, err
	}

	m, err := e.owner(symbol, clientOrderID)
	if err != nil {
		return types.Order{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	po, ok := m.orders[clientOrderID]
	if !ok {
		return types.Order{}, errors.Newf(errors.ErrCodeNotFound, "order %s not found on %s", clientOrderID, m.symbol)
	}

	return po.order.Snapshot(), nil
}

// FetchBalances returns the ledger.
func (e *Engine) FetchBalances(ctx context.Context) (map[string]types.Balance, error) {
	if err := e.delay(ctx); err != nil {
		return nil, err
	}

	return e.ledger.Snapshot(), nil
}

// OpenOrders returns snapshots of the working orders of symbol, oldest first.
func (e *Engine) OpenOrders(symbol string) []types.Order {
	m := e.lookup(symbol)
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.Order
	for _, po := range m.orders {
		if !po.order.Status.IsTerminal() && po.err == nil {
			out = append(out, po.order.Snapshot())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt) ||
			(out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].VenueOrderID < out[j].VenueOrderID)
	})

	return out
}

// ReconcileBalances overwrites the ledger with snapshot. It refuses while any
// order is working, because working orders hold reservations.
func (e *Engine) ReconcileBalances(snapshot map[string]types.Balance) error {
	e.mu.RLock()
	symbols := make([]string, 0, len(e.markets))

	for symbol := range e.markets {
		symbols = append(symbols, symbol)
	}
	e.mu.RUnlock()

	sort.Strings(symbols)

	for _, symbol := range symbols {
		m := e.lookup(symbol)
		m.mu.Lock()
		defer m.mu.Unlock()

		for id, po := range m.orders {
			if !po.order.Status.IsTerminal() {
				return errors.Newf(errors.ErrCodeInvalidParameter, "cannot reconcile balances while order %s is working", id)
			}
		}
	}

	e.ledger.Reconcile(snapshot)

	return nil
}

func checkOrder(o types.Order) error {
	if o.ClientOrderID == "" {
		return errors.New(errors.ErrCodeMissingParameter, "client order id is required")
	}

	if o.Side != types.SideBuy && o.Side != types.SideSell {
		return errors.Newf(errors.ErrCodeInvalidOrder, "unknown side %q", o.Side)
	}

	if !o.Quantity.IsPositive() {
		return errors.New(errors.ErrCodeInvalidOrder, "order quantity must be greater than zero")
	}

	switch o.Type {
	case types.OrderTypeLimit:
		if !o.Price.IsPositive() {
			return errors.New(errors.ErrCodeInvalidOrder, "limit order price must be greater than zero")
		}
	case types.OrderTypeMarket:
	default:
		return errors.Newf(errors.ErrCodeInvalidOrder, "unknown order type %q", o.Type)
	}

	switch o.TimeInForce {
	case "", types.TimeInForceGTC, types.TimeInForceIOC, types.TimeInForceFOK:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidOrder, "unknown time in force %q", o.TimeInForce)
	}
}

func newVenueOrder(o types.Order, m *market, now time.Time) types.Order {
	m.orderSeq++

	order := types.Order{
		ClientOrderID:  o.ClientOrderID,
		VenueOrderID:   fmt.Sprintf("%s-%d", m.symbol, m.orderSeq),
		StrategyID:     o.StrategyID,
		Symbol:         m.symbol,
		Side:           o.Side,
		Type:           o.Type,
		TimeInForce:    o.TimeInForce,
		Quantity:       o.Quantity,
		Price:          o.Price,
		Status:         types.OrderStatusPending,
		FilledQuantity: decimal.Zero,
		AveragePrice:   decimal.Zero,
		Fee:            decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if order.TimeInForce == "" {
		order.TimeInForce = types.TimeInForceGTC
	}

	if order.Type == types.OrderTypeMarket {
		order.Price = decimal.Zero
	}

	return order
}

// admit checks fill-or-kill and market liquidity, then reserves funds and
// opens the order.
func (e *Engine) admit(m *market, po *paperOrder, now time.Time) error {
	o := &po.order
	limited := o.Type == types.OrderTypeLimit

	fillable, cost := m.book.sweep(o.Side, o.Quantity, o.Price, limited)
	remainder := o.Quantity.Sub(fillable)

	if o.TimeInForce == types.TimeInForceFOK && remainder.IsPositive() {
		return errors.Newf(errors.ErrCodeVenueRejected,
			"fill-or-kill order can fill %s of %s", fillable, o.Quantity)
	}

	if limited {
		po.restPrice = o.Price
		cost = o.Quantity.Mul(o.Price)
	} else if remainder.IsPositive() {
		rests := e.config.MarketRemainder == RestAtFallback && o.TimeInForce == types.TimeInForceGTC
		if rests {
			if price, ok := m.fallbackPrice(o.Side, e.config.FallbackSlippage); ok {
				po.restPrice = price
				cost = cost.Add(remainder.Mul(price))
			}
		}

		if fillable.IsZero() && po.restPrice.IsZero() {
			return errors.Newf(errors.ErrCodeVenueRejected, "no liquidity for market order on %s", m.symbol)
		}
	}

	asset, amount := m.quote, cost
	if o.Side == types.SideSell {
		asset, amount = m.base, o.Quantity
	}

	if err := e.ledger.Lock(asset, amount); err != nil {
		return err
	}

	po.lockAsset = asset
	po.reserved = amount

	return o.Transition(types.OrderStatusOpen, "", now)
}

// match takes liquidity for po as the aggressor in price-time priority.
func (e *Engine) match(m *market, po *paperOrder, now time.Time) {
	o := &po.order
	opposite := o.Side.Opposite()

	for o.Remaining().IsPositive() {
		l := m.book.best(opposite)
		if l == nil {
			return
		}

		if o.Type == types.OrderTypeLimit && !crosses(o.Side, o.Price, l.price) {
			return
		}

		head := l.entries[0]
		qty := decimal.Min(o.Remaining(), head.quantity)
		tradeID := m.nextTradeID()

		e.execute(m, po, tradeID, l.price, qty, types.LiquidityTaker, now)

		if !head.synthetic {
			e.execute(m, m.orders[head.id], tradeID, l.price, qty, types.LiquidityMaker, now)
		}

		m.consumeHead(opposite, l, qty)
	}
}

// consumeHead reduces the head entry of l and drops exhausted queue slots.
func (m *market) consumeHead(side types.Side, l *level, qty decimal.Decimal) {
	head := l.entries[0]
	head.quantity = head.quantity.Sub(qty)

	if !head.quantity.IsPositive() {
		l.entries = l.entries[1:]
		if po, ok := m.orders[head.id]; ok && !head.synthetic {
			po.resting = false
		}
	}

	m.book.dropEmptyBest(side)
}

// execute settles one fill for po against the ledger and reports it.
func (e *Engine) execute(m *market, po *paperOrder, tradeID string, price, qty decimal.Decimal, liquidity types.Liquidity, now time.Time) {
	o := &po.order

	var fee decimal.Decimal

	feeAsset := m.base
	if o.Side == types.SideBuy {
		e.consume(po, qty.Mul(price))
		fee = e.fees.Fee(liquidity, qty)
		e.ledger.Credit(m.base, qty.Sub(fee))
	} else {
		feeAsset = m.quote
		proceeds := qty.Mul(price)
		e.consume(po, qty)
		fee = e.fees.Fee(liquidity, proceeds)
		e.ledger.Credit(m.quote, proceeds.Sub(fee))
	}

	fill := types.Fill{
		TradeID:       tradeID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        m.symbol,
		Side:          o.Side,
		Price:         price,
		Quantity:      qty,
		Fee:           fee,
		FeeAsset:      feeAsset,
		Liquidity:     liquidity,
		Timestamp:     now,
	}

	if err := o.ApplyFill(fill); err != nil {
		e.logger.Error("Fill could not be applied",
			zap.String("client_order_id", o.ClientOrderID),
			zap.String("trade_id", tradeID),
			zap.Error(err),
		)

		return
	}

	m.lastPrice = price

	if o.Status.IsTerminal() {
		e.release(po)
	}

	e.emit(types.ExecutionReport{
		Kind:          types.ExecutionFill,
		ClientOrderID: o.ClientOrderID,
		VenueOrderID:  o.VenueOrderID,
		Fill:          fill,
		Timestamp:     now,
	})
}

func (e *Engine) consume(po *paperOrder, amount decimal.Decimal) {
	if err := e.ledger.Consume(po.lockAsset, amount); err != nil {
		e.logger.Error("Reservation underflow",
			zap.String("client_order_id", po.order.ClientOrderID),
			zap.Error(err),
		)
	}

	po.reserved = po.reserved.Sub(amount)
}

// release returns whatever po still has reserved.
func (e *Engine) release(po *paperOrder) {
	if !po.reserved.IsPositive() {
		po.reserved = decimal.Zero
		return
	}

	if err := e.ledger.Release(po.lockAsset, po.reserved); err != nil {
		e.logger.Error("Reservation release failed",
			zap.String("client_order_id", po.order.ClientOrderID),
			zap.Error(err),
		)
	}

	po.reserved = decimal.Zero
}

// settleRemainder rests, or cancels, what is left of a freshly placed order.
func (e *Engine) settleRemainder(m *market, po *paperOrder, now time.Time) {
	o := &po.order
	if o.Status.IsTerminal() {
		return
	}

	if o.TimeInForce == types.TimeInForceGTC && po.restPrice.IsPositive() {
		m.book.add(o.Side, po.restPrice, &entry{id: o.ClientOrderID, quantity: o.Remaining()})
		po.resting = true

		return
	}

	reason := fmt.Sprintf("%s remainder %s canceled", o.TimeInForce, o.Remaining())
	if o.Type == types.OrderTypeMarket {
		reason = fmt.Sprintf("market order remainder %s canceled: insufficient liquidity", o.Remaining())
	}

	e.cancel(m, po, reason, now)
}

func (e *Engine) cancel(m *market, po *paperOrder, reason string, now time.Time) {
	if po.resting {
		m.book.remove(po.order.Side, po.restPrice, po.order.ClientOrderID)
		po.resting = false
	}

	e.release(po)

	if err := po.order.Transition(types.OrderStatusCanceled, reason, now); err != nil {
		e.logger.Error("Cancel transition failed",
			zap.String("client_order_id", po.order.ClientOrderID),
			zap.Error(err),
		)
	}
}

// fallbackPrice is the last known price moved against a taker on side.
func (m *market) fallbackPrice(side types.Side, slippage decimal.Decimal) (decimal.Decimal, bool) {
	if !m.lastPrice.IsPositive() {
		return decimal.Zero, false
	}

	one := decimal.NewFromInt(1)
	if side == types.SideBuy {
		return m.lastPrice.Mul(one.Add(slippage)), true
	}

	return m.lastPrice.Mul(one.Sub(slippage)), true
}

// clock is the feed time once a feed drives the symbol, wall time before.
func (e *Engine) clock(m *market) time.Time {
	if !m.clock.IsZero() {
		return m.clock
	}

	return e.now()
}

func (e *Engine) delay(ctx context.Context) error {
	if e.config.Latency <= 0 {
		return nil
	}

	timer := time.NewTimer(e.config.Latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCodeTimeout, "paper venue call aborted", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (e *Engine) market(symbol string) (*market, error) {
	if m := e.lookup(symbol); m != nil {
		return m, nil
	}

	base, quote, err := types.SplitSymbol(symbol)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.markets[symbol]
	if !ok {
		m = &market{
			symbol:    symbol,
			base:      base,
			quote:     quote,
			book:      newBook(),
			orders:    make(map[string]*paperOrder),
			lastPrice: decimal.Zero,
		}
		e.markets[symbol] = m
	}

	return m, nil
}

func (e *Engine) lookup(symbol string) *market {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.markets[symbol]
}

// owner resolves the market of an order, using the owner index when symbol
// is empty.
func (e *Engine) owner(symbol, clientOrderID string) (*market, error) {
	if symbol == "" {
		e.mu.RLock()
		symbol = e.owners[clientOrderID]
		e.mu.RUnlock()
	}

	m := e.lookup(symbol)
	if m == nil {
		return nil, errors.Newf(errors.ErrCodeNotFound, "order %s not found", clientOrderID)
	}

	return m, nil
}

// claim binds a client order ID to a symbol. It is called with the symbol's
// market locked, so a second placement on another symbol sees the claim.
func (e *Engine) claim(clientOrderID, symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if owner, ok := e.owners[clientOrderID]; ok && owner != symbol {
		return errors.Newf(errors.ErrCodeDuplicateOrder, "client order id %s is already used on %s", clientOrderID, owner)
	}

	e.owners[clientOrderID] = symbol

	return nil
}
