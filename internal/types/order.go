package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

type Side string

type OrderType string

type TimeInForce string

type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

const (
	// TimeInForceGTC rests any unfilled remainder on the book.
	TimeInForceGTC TimeInForce = "GTC"
	// TimeInForceIOC cancels any remainder that does not fill immediately.
	TimeInForceIOC TimeInForce = "IOC"
	// TimeInForceFOK rejects the order unless it can fill completely on arrival.
	TimeInForceFOK TimeInForce = "FOK"
)

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}

	return SideBuy
}

// IsTerminal reports whether no further transition may leave the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

var transitions = map[OrderStatus][]OrderStatus{
	// A fill observed before the acknowledgment implies the venue accepted the order.
	OrderStatusPending: {
		OrderStatusOpen, OrderStatusPartiallyFilled, OrderStatusFilled,
		OrderStatusCanceled, OrderStatusRejected,
	},
	OrderStatusOpen:            {OrderStatusPartiallyFilled, OrderStatusFilled, OrderStatusCanceled},
	OrderStatusPartiallyFilled: {OrderStatusPartiallyFilled, OrderStatusFilled, OrderStatusCanceled},
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// OrderRequest is the strategy's intent to place an order.
type OrderRequest struct {
	// ClientOrderID is the idempotency key. A new one is minted when empty.
	ClientOrderID string          `yaml:"client_order_id" json:"client_order_id" validate:"omitempty,max=36"`
	Symbol        string          `yaml:"symbol" json:"symbol" validate:"required"`
	Side          Side            `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Type          OrderType       `yaml:"type" json:"type" validate:"required,oneof=MARKET LIMIT"`
	TimeInForce   TimeInForce     `yaml:"time_in_force" json:"time_in_force" validate:"omitempty,oneof=GTC IOC FOK"`
	Quantity      decimal.Decimal `yaml:"quantity" json:"quantity"`
	// Price is the limit price. Market orders leave it empty.
	Price optional.Option[decimal.Decimal] `yaml:"-" json:"price"`
}

// Validate validates the request fields.
func (r *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	if !r.Quantity.IsPositive() {
		return errors.New(errors.ErrCodeInvalidOrder, "order quantity must be greater than zero")
	}

	switch r.Type {
	case OrderTypeLimit:
		if r.Price.IsNone() || !r.Price.Unwrap().IsPositive() {
			return errors.New(errors.ErrCodeInvalidOrder, "limit order price must be greater than zero")
		}
	case OrderTypeMarket:
		if r.Price.IsSome() {
			return errors.New(errors.ErrCodeInvalidOrder, "market order must not carry a price")
		}
	}

	return nil
}

// Order is the canonical state of one order. Copies handed out by the
// manager and by connectors are snapshots; mutating them has no effect.
type Order struct {
	ClientOrderID string          `yaml:"client_order_id" json:"client_order_id"`
	VenueOrderID  string          `yaml:"venue_order_id" json:"venue_order_id"`
	StrategyID    string          `yaml:"strategy_id" json:"strategy_id"`
	Symbol        string          `yaml:"symbol" json:"symbol"`
	Side          Side            `yaml:"side" json:"side"`
	Type          OrderType       `yaml:"type" json:"type"`
	TimeInForce   TimeInForce     `yaml:"time_in_force" json:"time_in_force"`
	Quantity      decimal.Decimal `yaml:"quantity" json:"quantity"`
	// Price is zero for market orders.
	Price          decimal.Decimal `yaml:"price" json:"price"`
	Status         OrderStatus     `yaml:"status" json:"status"`
	FilledQuantity decimal.Decimal `yaml:"filled_quantity" json:"filled_quantity"`
	AveragePrice   decimal.Decimal `yaml:"average_price" json:"average_price"`
	Fee            decimal.Decimal `yaml:"fee" json:"fee"`
	FeeAsset       string          `yaml:"fee_asset" json:"fee_asset"`
	// Reason carries the rejection or cancellation cause.
	Reason    string    `yaml:"reason" json:"reason"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
	Fills     []Fill    `yaml:"fills" json:"fills"`
}

// NewOrder builds a pending order from a validated request.
func NewOrder(req OrderRequest, strategyID string, now time.Time) Order {
	tif := req.TimeInForce
	if tif == "" {
		tif = TimeInForceGTC
	}

	return Order{
		ClientOrderID:  req.ClientOrderID,
		StrategyID:     strategyID,
		Symbol:         req.Symbol,
		Side:           req.Side,
		Type:           req.Type,
		TimeInForce:    tif,
		Quantity:       req.Quantity,
		Price:          req.Price.TakeOr(decimal.Zero),
		Status:         OrderStatusPending,
		FilledQuantity: decimal.Zero,
		AveragePrice:   decimal.Zero,
		Fee:            decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Remaining returns the quantity that has not been filled yet.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// HasFill reports whether a fill with the given trade ID was already applied.
func (o *Order) HasFill(tradeID string) bool {
	for _, f := range o.Fills {
		if f.TradeID == tradeID {
			return true
		}
	}

	return false
}

// ApplyFill folds a fill into the order's filled quantity, average price,
// fee and status. The order is left untouched when an error is returned.
func (o *Order) ApplyFill(fill Fill) error {
	if o.Status.IsTerminal() {
		return errors.Newf(errors.ErrCodeAlreadyTerminal, "order %s is %s", o.ClientOrderID, o.Status)
	}

	if !fill.Quantity.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "fill %s has non-positive quantity", fill.TradeID)
	}

	if fill.Quantity.GreaterThan(o.Remaining()) {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"fill %s quantity %s exceeds remaining %s", fill.TradeID, fill.Quantity, o.Remaining())
	}

	next := OrderStatusPartiallyFilled
	if fill.Quantity.Equal(o.Remaining()) {
		next = OrderStatusFilled
	}

	if !o.Status.CanTransition(next) {
		return errors.Newf(errors.ErrCodeInvalidTransition, "order %s cannot move from %s to %s", o.ClientOrderID, o.Status, next)
	}

	notional := o.AveragePrice.Mul(o.FilledQuantity).Add(fill.Price.Mul(fill.Quantity))
	o.FilledQuantity = o.FilledQuantity.Add(fill.Quantity)
	o.AveragePrice = notional.Div(o.FilledQuantity)
	o.Fee = o.Fee.Add(fill.Fee)

	if fill.FeeAsset != "" {
		o.FeeAsset = fill.FeeAsset
	}

	o.Status = next
	o.Fills = append(o.Fills, fill)

	if fill.Timestamp.After(o.UpdatedAt) {
		o.UpdatedAt = fill.Timestamp
	}

	return nil
}

// Transition moves the order to next if the lifecycle allows it.
func (o *Order) Transition(next OrderStatus, reason string, at time.Time) error {
	if o.Status == next && !next.IsTerminal() {
		return nil
	}

	if !o.Status.CanTransition(next) {
		code := errors.ErrCodeInvalidTransition
		if o.Status.IsTerminal() {
			code = errors.ErrCodeAlreadyTerminal
		}

		return errors.Newf(code, "order %s cannot move from %s to %s", o.ClientOrderID, o.Status, next)
	}

	o.Status = next
	if reason != "" {
		o.Reason = reason
	}

	if at.After(o.UpdatedAt) {
		o.UpdatedAt = at
	}

	return nil
}

// Snapshot returns a deep copy that shares no mutable state with o.
func (o *Order) Snapshot() Order {
	cp := *o
	cp.Fills = append([]Fill(nil), o.Fills...)

	return cp
}

// OrderAck is a venue's acknowledgment of a placement or cancellation.
type OrderAck struct {
	ClientOrderID string      `json:"client_order_id"`
	VenueOrderID  string      `json:"venue_order_id"`
	Status        OrderStatus `json:"status"`
	// Reason explains a cancellation or rejection reported in Status.
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
