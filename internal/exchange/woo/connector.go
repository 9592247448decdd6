// Package woo connects to WOO X spot through its signed REST API.
package woo

import (
	"context"
	"hash/fnv"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

const VenueName = "woo"

const defaultTimeout = 10 * time.Second

// Connector implements exchange.Connector for WOO X spot. Executions are
// not pushed over REST; fills are read from the order's transactions in
// FetchOrder.
type Connector struct {
	client  *client
	session *exchange.Session
	placer  *exchange.Placer
	logger  *logger.Logger
	now     func() time.Time
}

var _ exchange.Connector = (*Connector)(nil)

// New creates a connector from a validated config.
func New(config Config, log *logger.Logger) (*Connector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Connector{
		client:  newClient(rest, newSigner(config.APIKey, config.SecretKey)),
		session: exchange.NewSession(VenueName, config.Session, log),
		placer:  exchange.NewPlacer(),
		logger:  log.Named(VenueName),
		now:     time.Now,
	}, nil
}

func (c *Connector) Venue() string {
	return VenueName
}

func (c *Connector) Session() *exchange.Session {
	return c.session
}

// SetExecutionHandler is a no-op: WOO X reports executions only through
// FetchOrder.
func (c *Connector) SetExecutionHandler(types.ExecutionHandler) {}

// VenueSymbol converts BASE/QUOTE to WOO X's SPOT_BASE_QUOTE form.
func VenueSymbol(symbol string) string {
	return "SPOT_" + strings.ReplaceAll(symbol, "/", "_")
}

// numericClientID maps a client order ID to the non-negative 63-bit integer
// WOO X accepts. The mapping is stable so lookups find the same order.
func numericClientID(clientOrderID string) int64 {
	if id, err := strconv.ParseInt(clientOrderID, 10, 64); err == nil && id >= 0 {
		return id
	}

	h := fnv.New64a()
	h.Write([]byte(clientOrderID))

	return int64(h.Sum64() & math.MaxInt64)
}

type createOrderResponse struct {
	apiResponse
	Timestamp     string `json:"timestamp"`
	OrderID       int64  `json:"order_id"`
	ClientOrderID int64  `json:"client_order_id"`
}

type cancelOrderResponse struct {
	apiResponse
	Status string `json:"status"`
}

type transaction struct {
	ID                int64           `json:"id"`
	Fee               decimal.Decimal `json:"fee"`
	FeeAsset          string          `json:"fee_asset"`
	ExecutedPrice     decimal.Decimal `json:"executed_price"`
	ExecutedQuantity  decimal.Decimal `json:"executed_quantity"`
	ExecutedTimestamp string          `json:"executed_timestamp"`
	IsMaker           int             `json:"is_maker"`
}

type orderResponse struct {
	apiResponse
	Symbol               string              `json:"symbol"`
	Status               string              `json:"status"`
	Side                 string              `json:"side"`
	Type                 string              `json:"type"`
	CreatedTime          string              `json:"created_time"`
	OrderID              int64               `json:"order_id"`
	Price                decimal.NullDecimal `json:"price"`
	Quantity             decimal.Decimal     `json:"quantity"`
	Executed             decimal.Decimal     `json:"executed"`
	TotalFee             decimal.Decimal     `json:"total_fee"`
	FeeAsset             string              `json:"fee_asset"`
	AverageExecutedPrice decimal.NullDecimal `json:"average_executed_price"`
	Transactions         []transaction       `json:"Transactions"`
}

type holding struct {
	Token   string          `json:"token"`
	Holding decimal.Decimal `json:"holding"`
	Frozen  decimal.Decimal `json:"frozen"`
}

type holdingResponse struct {
	apiResponse
	Data struct {
		Holding []holding `json:"holding"`
	} `json:"data"`
}

type systemInfoResponse struct {
	apiResponse
	Data struct {
		Status int    `json:"status"`
		Msg    string `json:"msg"`
	} `json:"data"`
}

// PlaceOrder places the order with a numeric client order ID derived from
// the order's client order ID.
func (c *Connector) PlaceOrder(ctx context.Context, order types.Order) (types.OrderAck, error) {
	lookup := func(ctx context.Context) (types.OrderAck, bool, error) {
		ack, err := c.lookupAck(ctx, order)
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return types.OrderAck{}, false, nil
		}

		if err != nil {
			return types.OrderAck{}, false, err
		}

		return ack, true, nil
	}

	return c.placer.Place(ctx, order.ClientOrderID, lookup, func(ctx context.Context) (types.OrderAck, error) {
		return c.place(ctx, order)
	})
}

func (c *Connector) lookupAck(ctx context.Context, order types.Order) (types.OrderAck, error) {
	o, err := c.FetchOrder(ctx, order.Symbol, order.ClientOrderID)
	if err != nil {
		return types.OrderAck{}, err
	}

	return types.OrderAck{
		ClientOrderID: order.ClientOrderID,
		VenueOrderID:  o.VenueOrderID,
		Status:        o.Status,
		Reason:        o.Reason,
		Timestamp:     o.UpdatedAt,
	}, nil
}

func orderType(order types.Order) (string, error) {
	switch order.Type {
	case types.OrderTypeMarket:
		return "MARKET", nil
	case types.OrderTypeLimit:
		switch order.TimeInForce {
		case types.TimeInForceIOC:
			return "IOC", nil
		case types.TimeInForceFOK:
			return "FOK", nil
		default:
			return "LIMIT", nil
		}
	default:
		return "", errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order type: %s", order.Type)
	}
}

func (c *Connector) place(ctx context.Context, order types.Order) (types.OrderAck, error) {
	if order.Side != types.SideBuy && order.Side != types.SideSell {
		return types.OrderAck{}, errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order side: %s", order.Side)
	}

	kind, err := orderType(order)
	if err != nil {
		return types.OrderAck{}, err
	}

	params := url.Values{}
	params.Set("symbol", VenueSymbol(order.Symbol))
	params.Set("client_order_id", strconv.FormatInt(numericClientID(order.ClientOrderID), 10))
	params.Set("order_type", kind)
	params.Set("side", string(order.Side))
	params.Set("order_quantity", order.Quantity.String())

	if order.Type == types.OrderTypeLimit {
		params.Set("order_price", order.Price.String())
	}

	var resp createOrderResponse
	if err := c.client.call(ctx, http.MethodPost, "/v1/order", params, true, &resp); err != nil {
		mapped := mapError(ctx, err, "failed to place order on WOO X")
		if !errors.HasCode(mapped, errors.ErrCodeDuplicateOrder) {
			return types.OrderAck{}, mapped
		}

		// The venue already holds this client order ID; adopt it.
		c.logger.Info("Adopting existing order on duplicate placement",
			zap.String("client_order_id", order.ClientOrderID), zap.String("symbol", order.Symbol))

		return c.lookupAck(ctx, order)
	}

	return types.OrderAck{
		ClientOrderID: order.ClientOrderID,
		VenueOrderID:  strconv.FormatInt(resp.OrderID, 10),
		Status:        types.OrderStatusOpen,
		Timestamp:     c.parseTime(resp.Timestamp),
	}, nil
}

// CancelOrder cancels by client order ID. An unknown-order answer is
// checked against the order's state to tell AlreadyTerminal from NotFound.
func (c *Connector) CancelOrder(ctx context.Context, symbol string, clientOrderID string) (types.OrderAck, error) {
	params := url.Values{}
	params.Set("client_order_id", strconv.FormatInt(numericClientID(clientOrderID), 10))
	params.Set("symbol", VenueSymbol(symbol))

	var resp cancelOrderResponse
	if err := c.client.call(ctx, http.MethodDelete, "/v1/client/order", params, true, &resp); err != nil {
		mapped := mapError(ctx, err, "failed to cancel order on WOO X")
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

	return types.OrderAck{
		ClientOrderID: clientOrderID,
		Status:        types.OrderStatusCanceled,
		Reason:        "canceled by client",
		Timestamp:     c.now(),
	}, nil
}

// FetchOrder returns WOO X's view of the order including its executions.
func (c *Connector) FetchOrder(ctx context.Context, symbol string, clientOrderID string) (types.Order, error) {
	path := "/v1/client/order/" + strconv.FormatInt(numericClientID(clientOrderID), 10)

	var resp orderResponse
	if err := c.client.call(ctx, http.MethodGet, path, url.Values{}, true, &resp); err != nil {
		return types.Order{}, mapError(ctx, err, "failed to fetch order from WOO X")
	}

	return c.convertOrder(symbol, clientOrderID, resp), nil
}

func (c *Connector) convertOrder(symbol, clientOrderID string, resp orderResponse) types.Order {
	status, reason := convertStatus(resp.Status)
	created := c.parseTime(resp.CreatedTime)

	order := types.Order{
		ClientOrderID:  clientOrderID,
		VenueOrderID:   strconv.FormatInt(resp.OrderID, 10),
		Symbol:         symbol,
		Side:           types.Side(resp.Side),
		Type:           types.OrderTypeLimit,
		TimeInForce:    types.TimeInForceGTC,
		Quantity:       resp.Quantity,
		Price:          resp.Price.Decimal,
		Status:         status,
		FilledQuantity: resp.Executed,
		AveragePrice:   resp.AverageExecutedPrice.Decimal,
		Fee:            resp.TotalFee,
		FeeAsset:       resp.FeeAsset,
		Reason:         reason,
		CreatedAt:      created,
		UpdatedAt:      created,
	}

	switch resp.Type {
	case "MARKET":
		order.Type = types.OrderTypeMarket
	case "IOC":
		order.TimeInForce = types.TimeInForceIOC
	case "FOK":
		order.TimeInForce = types.TimeInForceFOK
	}

	for _, t := range resp.Transactions {
		liquidity := types.LiquidityTaker
		if t.IsMaker == 1 {
			liquidity = types.LiquidityMaker
		}

		ts := c.parseTime(t.ExecutedTimestamp)
		if ts.After(order.UpdatedAt) {
			order.UpdatedAt = ts
		}

		order.Fills = append(order.Fills, types.Fill{
			TradeID:       strconv.FormatInt(t.ID, 10),
			ClientOrderID: clientOrderID,
			Symbol:        symbol,
			Side:          order.Side,
			Price:         t.ExecutedPrice,
			Quantity:      t.ExecutedQuantity,
			Fee:           t.Fee,
			FeeAsset:      t.FeeAsset,
			Liquidity:     liquidity,
			Timestamp:     ts,
		})
	}

	return order
}

// FetchBalances returns holdings with frozen amounts as locked.
func (c *Connector) FetchBalances(ctx context.Context) (map[string]types.Balance, error) {
	var resp holdingResponse
	if err := c.client.call(ctx, http.MethodGet, "/v2/client/holding", url.Values{}, true, &resp); err != nil {
		return nil, mapError(ctx, err, "failed to get holdings from WOO X")
	}

	out := make(map[string]types.Balance, len(resp.Data.Holding))

	for _, h := range resp.Data.Holding {
		if h.Holding.IsZero() && h.Frozen.IsZero() {
			continue
		}

		out[h.Token] = types.Balance{Asset: h.Token, Free: h.Holding.Sub(h.Frozen), Locked: h.Frozen}
	}

	return out, nil
}

// CheckConnection reads the public system status.
func (c *Connector) CheckConnection(ctx context.Context) error {
	var resp systemInfoResponse
	if err := c.client.call(ctx, http.MethodGet, "/v1/public/system_info", url.Values{}, false, &resp); err != nil {
		return mapError(ctx, err, "woo system info failed")
	}

	if resp.Data.Status != 0 {
		return errors.Newf(errors.ErrCodeDisconnected, "woo system unavailable: %s", resp.Data.Msg)
	}

	return nil
}

// parseTime reads WOO X's "seconds.millis" timestamps, falling back to now.
func (c *Connector) parseTime(raw string) time.Time {
	seconds, err := decimal.NewFromString(raw)
	if err != nil {
		return c.now()
	}

	return time.UnixMilli(seconds.Shift(3).IntPart())
}

func convertStatus(status string) (types.OrderStatus, string) {
	switch status {
	case "NEW":
		return types.OrderStatusOpen, ""
	case "PARTIAL_FILLED":
		return types.OrderStatusPartiallyFilled, ""
	case "FILLED":
		return types.OrderStatusFilled, ""
	case "CANCELLED":
		return types.OrderStatusCanceled, "canceled on venue"
	case "REJECTED":
		return types.OrderStatusRejected, "rejected by venue"
	default:
		return types.OrderStatusPending, ""
	}
}
