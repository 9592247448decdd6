// Package binance connects to Binance spot through go-binance.
package binance

import (
	"context"
	stderrors "errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

const VenueName = "binance"

// Binance API error codes the connector distinguishes.
const (
	codeDisconnected     = -1001
	codeTooManyRequests  = -1003
	codeTimeout          = -1007
	codeTooManyOrders    = -1015
	codeNewOrderRejected = -2010
	codeCancelRejected   = -2011
	codeNoSuchOrder      = -2013
)

// Connector implements exchange.Connector for Binance spot. Binance does not
// push executions on the REST API, so fills are reported only from the
// placement response and otherwise surface through FetchOrder.
type Connector struct {
	client  Client
	session *exchange.Session
	placer  *exchange.Placer
	logger  *logger.Logger

	handlerMu sync.RWMutex
	handler   types.ExecutionHandler
}

var _ exchange.Connector = (*Connector)(nil)

// New creates a connector from a validated config.
func New(config Config, log *logger.Logger) (*Connector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := NewClient(config.APIKey, config.SecretKey, config.BaseURL, config.Testnet)

	return newWithClient(client, config.Session, log), nil
}

// newWithClient creates a connector with a custom client.
// This is used for testing with fake clients.
func newWithClient(client Client, session exchange.SessionConfig, log *logger.Logger) *Connector {
	return &Connector{
		client:  client,
		session: exchange.NewSession(VenueName, session, log),
		placer:  exchange.NewPlacer(),
		logger:  log.Named(VenueName),
	}
}

func (c *Connector) Venue() string {
	return VenueName
}

func (c *Connector) Session() *exchange.Session {
	return c.session
}

func (c *Connector) SetExecutionHandler(handler types.ExecutionHandler) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	c.handler = handler
}

func (c *Connector) emit(report types.ExecutionReport) {
	c.handlerMu.RLock()
	handler := c.handler
	c.handlerMu.RUnlock()

	if handler != nil {
		handler(report)
	}
}

// VenueSymbol converts BASE/QUOTE to Binance's concatenated form.
func VenueSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// PlaceOrder places the order with the client order ID as Binance's
// newClientOrderId.
func (c *Connector) PlaceOrder(ctx context.Context, order types.Order) (types.OrderAck, error) {
	lookup := func(ctx context.Context) (types.OrderAck, bool, error) {
		o, err := c.FetchOrder(ctx, order.Symbol, order.ClientOrderID)
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return types.OrderAck{}, false, nil
		}

		if err != nil {
			return types.OrderAck{}, false, err
		}

		return types.OrderAck{
			ClientOrderID: o.ClientOrderID,
			VenueOrderID:  o.VenueOrderID,
			Status:        o.Status,
			Timestamp:     o.UpdatedAt,
		}, true, nil
	}

	return c.placer.Place(ctx, order.ClientOrderID, lookup, func(ctx context.Context) (types.OrderAck, error) {
		return c.place(ctx, order)
	})
}

func (c *Connector) place(ctx context.Context, order types.Order) (types.OrderAck, error) {
	var side gobinance.SideType

	switch order.Side {
	case types.SideBuy:
		side = gobinance.SideTypeBuy
	case types.SideSell:
		side = gobinance.SideTypeSell
	default:
		return types.OrderAck{}, errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order side: %s", order.Side)
	}

	service := c.client.NewCreateOrderService().
		Symbol(VenueSymbol(order.Symbol)).
		Side(side).
		Quantity(order.Quantity.String()).
		NewClientOrderID(order.ClientOrderID)

	switch order.Type {
	case types.OrderTypeMarket:
		service = service.Type(gobinance.OrderTypeMarket)
	case types.OrderTypeLimit:
		service = service.
			Type(gobinance.OrderTypeLimit).
			Price(order.Price.String()).
			TimeInForce(timeInForce(order.TimeInForce))
	default:
		return types.OrderAck{}, errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order type: %s", order.Type)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return types.OrderAck{}, mapError(ctx, err, "failed to place order on Binance")
	}

	ts := time.UnixMilli(resp.TransactTime)
	venueOrderID := strconv.FormatInt(resp.OrderID, 10)

	for _, f := range resp.Fills {
		fill, err := c.convertFill(order, f, ts)
		if err != nil {
			c.logger.Warn("Unparseable fill in placement response",
				zap.String("client_order_id", order.ClientOrderID), zap.Error(err))

			continue
		}

		c.emit(types.ExecutionReport{
			Kind:          types.ExecutionFill,
			ClientOrderID: order.ClientOrderID,
			VenueOrderID:  venueOrderID,
			Fill:          fill,
			Timestamp:     ts,
		})
	}

	status, reason := convertStatus(resp.Status)

	return types.OrderAck{
		ClientOrderID: order.ClientOrderID,
		VenueOrderID:  venueOrderID,
		Status:        status,
		Reason:        reason,
		Timestamp:     ts,
	}, nil
}

func (c *Connector) convertFill(order types.Order, f *gobinance.Fill, ts time.Time) (types.Fill, error) {
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return types.Fill{}, err
	}

	qty, err := decimal.NewFromString(f.Quantity)
	if err != nil {
		return types.Fill{}, err
	}

	fee, err := decimal.NewFromString(f.Commission)
	if err != nil {
		return types.Fill{}, err
	}

	return types.Fill{
		TradeID:       strconv.FormatInt(f.TradeID, 10),
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Price:         price,
		Quantity:      qty,
		Fee:           fee,
		FeeAsset:      f.CommissionAsset,
		Liquidity:     types.LiquidityTaker,
		Timestamp:     ts,
	}, nil
}

// CancelOrder cancels by client order ID. Binance answers an unknown-order
// error for finished orders too, so the order is looked up to tell
// AlreadyTerminal from NotFound.
func (c *Connector) CancelOrder(ctx context.Context, symbol string, clientOrderID string) (types.OrderAck, error) {
	resp, err := c.client.NewCancelOrderService().
		Symbol(VenueSymbol(symbol)).
		OrigClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		mapped := mapError(ctx, err, "failed to cancel order on Binance")
		if !errors.HasCode(mapped, errors.ErrCodeNotFound) {
			return types.OrderAck{}, mapped
		}

		o, fetchErr := c.FetchOrder(ctx, symbol, clientOrderID)
		if fetchErr == nil && o.Status.IsTerminal() {
			return types.OrderAck{
					ClientOrderID: clientOrderID,
					VenueOrderID:  o.VenueOrderID,
					Status:        o.Status,
					Timestamp:     o.UpdatedAt,
				}, errors.Newf(errors.ErrCodeAlreadyTerminal,
					"order %s is already %s", clientOrderID, o.Status)
		}

		return types.OrderAck{}, mapped
	}

	status, reason := convertStatus(resp.Status)

	return types.OrderAck{
		ClientOrderID: clientOrderID,
		VenueOrderID:  strconv.FormatInt(resp.OrderID, 10),
		Status:        status,
		Reason:        reason,
		Timestamp:     time.UnixMilli(resp.TransactTime),
	}, nil
}

// FetchOrder returns Binance's view of the order. Individual fills are not
// part of the response; the cumulative quantity and average price are.
func (c *Connector) FetchOrder(ctx context.Context, symbol string, clientOrderID string) (types.Order, error) {
	o, err := c.client.NewGetOrderService().
		Symbol(VenueSymbol(symbol)).
		OrigClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return types.Order{}, mapError(ctx, err, "failed to fetch order from Binance")
	}

	return convertOrder(symbol, o)
}

func convertOrder(symbol string, o *gobinance.Order) (types.Order, error) {
	fields := map[string]string{
		"price":             o.Price,
		"orig_quantity":     o.OrigQuantity,
		"executed_quantity": o.ExecutedQuantity,
		"quote_quantity":    o.CummulativeQuoteQuantity,
	}

	values := make(map[string]decimal.Decimal, len(fields))
	for name, raw := range fields {
		if raw == "" {
			values[name] = decimal.Zero
			continue
		}

		v, err := decimal.NewFromString(raw)
		if err != nil {
			return types.Order{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid %s %q", name, raw)
		}

		values[name] = v
	}

	average := decimal.Zero
	if executed := values["executed_quantity"]; executed.IsPositive() {
		average = values["quote_quantity"].Div(executed)
	}

	status, reason := convertStatus(o.Status)

	order := types.Order{
		ClientOrderID:  o.ClientOrderID,
		VenueOrderID:   strconv.FormatInt(o.OrderID, 10),
		Symbol:         symbol,
		Side:           types.Side(o.Side),
		Type:           types.OrderType(o.Type),
		TimeInForce:    types.TimeInForce(o.TimeInForce),
		Quantity:       values["orig_quantity"],
		Price:          values["price"],
		Status:         status,
		FilledQuantity: values["executed_quantity"],
		AveragePrice:   average,
		Fee:            decimal.Zero,
		Reason:         reason,
		CreatedAt:      time.UnixMilli(o.Time),
		UpdatedAt:      time.UnixMilli(o.UpdateTime),
	}

	if order.Type != types.OrderTypeLimit {
		order.Type = types.OrderTypeMarket
	}

	return order, nil
}

// FetchBalances returns the account's free and locked balances.
func (c *Connector) FetchBalances(ctx context.Context) (map[string]types.Balance, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, mapError(ctx, err, "failed to get account info from Binance")
	}

	return ConvertBalances(account)
}

// ConvertBalances converts an account response, dropping empty assets.
func ConvertBalances(account *gobinance.Account) (map[string]types.Balance, error) {
	out := make(map[string]types.Balance, len(account.Balances))

	for _, b := range account.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid free balance for %s", b.Asset)
		}

		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid locked balance for %s", b.Asset)
		}

		if free.IsZero() && locked.IsZero() {
			continue
		}

		out[b.Asset] = types.Balance{Asset: b.Asset, Free: free, Locked: locked}
	}

	return out, nil
}

func (c *Connector) CheckConnection(ctx context.Context) error {
	if err := c.client.NewPingService().Do(ctx); err != nil {
		return mapError(ctx, err, "binance ping failed")
	}

	return nil
}

func timeInForce(tif types.TimeInForce) gobinance.TimeInForceType {
	switch tif {
	case types.TimeInForceIOC:
		return gobinance.TimeInForceTypeIOC
	case types.TimeInForceFOK:
		return gobinance.TimeInForceTypeFOK
	default:
		return gobinance.TimeInForceTypeGTC
	}
}

// convertStatus maps a Binance order status, with a reason for the states
// that end an order without a full fill.
func convertStatus(status gobinance.OrderStatusType) (types.OrderStatus, string) {
	switch status {
	case gobinance.OrderStatusTypeNew, gobinance.OrderStatusTypePendingCancel:
		return types.OrderStatusOpen, ""
	case gobinance.OrderStatusTypePartiallyFilled:
		return types.OrderStatusPartiallyFilled, ""
	case gobinance.OrderStatusTypeFilled:
		return types.OrderStatusFilled, ""
	case gobinance.OrderStatusTypeCanceled:
		return types.OrderStatusCanceled, "canceled on venue"
	case gobinance.OrderStatusTypeExpired:
		return types.OrderStatusCanceled, "expired on venue"
	case gobinance.OrderStatusTypeRejected:
		return types.OrderStatusRejected, "rejected by venue"
	default:
		return types.OrderStatusPending, ""
	}
}

// mapError classifies a go-binance error into the connector taxonomy.
func mapError(ctx context.Context, err error, message string) error {
	var apiErr *common.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeTooManyRequests, codeTooManyOrders:
			return errors.Wrap(errors.ErrCodeRateLimited, message, err)
		case codeDisconnected:
			return errors.Wrap(errors.ErrCodeDisconnected, message, err)
		case codeTimeout:
			return errors.Wrap(errors.ErrCodeTimeout, message, err)
		case codeNoSuchOrder, codeCancelRejected:
			return errors.Wrap(errors.ErrCodeNotFound, message, err)
		case codeNewOrderRejected:
			if strings.Contains(strings.ToLower(apiErr.Message), "insufficient balance") {
				return errors.Wrap(errors.ErrCodeInsufficientBalance, message, err)
			}

			return errors.Wrap(errors.ErrCodeVenueRejected, message, err)
		default:
			return errors.Wrap(errors.ErrCodeVenueRejected, message, err)
		}
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, message, err)
	}

	if stderrors.Is(err, context.Canceled) || ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeTimeout, message, err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ErrCodeTimeout, message, err)
	}

	return errors.Wrap(errors.ErrCodeDisconnected, message, err)
}
