package binance

import (
	"context"

	gobinance "github.com/adshao/go-binance/v2"
)

// Service interfaces wrap the go-binance request builders so connectors and
// providers can be tested without the network.

// CreateOrderService places an order.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side gobinance.SideType) CreateOrderService
	Type(orderType gobinance.OrderType) CreateOrderService
	TimeInForce(tif gobinance.TimeInForceType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*gobinance.CreateOrderResponse, error)
}

// GetOrderService looks an order up by client order ID.
type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrigClientOrderID(id string) GetOrderService
	Do(ctx context.Context) (*gobinance.Order, error)
}

// CancelOrderService cancels an order by client order ID.
type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrigClientOrderID(id string) CancelOrderService
	Do(ctx context.Context) (*gobinance.CancelOrderResponse, error)
}

type GetAccountService interface {
	Do(ctx context.Context) (*gobinance.Account, error)
}

type BookTickerService interface {
	Symbol(symbol string) BookTickerService
	Do(ctx context.Context) ([]*gobinance.BookTicker, error)
}

type DepthService interface {
	Symbol(symbol string) DepthService
	Limit(limit int) DepthService
	Do(ctx context.Context) (*gobinance.DepthResponse, error)
}

type KlinesService interface {
	Symbol(symbol string) KlinesService
	Interval(interval string) KlinesService
	StartTime(startTime int64) KlinesService
	EndTime(endTime int64) KlinesService
	Limit(limit int) KlinesService
	Do(ctx context.Context) ([]*gobinance.Kline, error)
}

type PingService interface {
	Do(ctx context.Context) error
}

// Client abstracts the go-binance client.
type Client interface {
	NewCreateOrderService() CreateOrderService
	NewGetOrderService() GetOrderService
	NewCancelOrderService() CancelOrderService
	NewGetAccountService() GetAccountService
	NewBookTickerService() BookTickerService
	NewDepthService() DepthService
	NewKlinesService() KlinesService
	NewPingService() PingService
}

// NewClient returns a Client backed by go-gobinance. baseURL overrides the
// endpoint, testnet switches to the Binance spot testnet.
func NewClient(apiKey, secretKey, baseURL string, testnet bool) Client {
	if testnet {
		gobinance.UseTestnet = true
	}

	client := gobinance.NewClient(apiKey, secretKey)
	if baseURL != "" {
		client.BaseURL = baseURL
	}

	return &realClient{client: client}
}

type realClient struct {
	client *gobinance.Client
}

func (r *realClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: r.client.NewGetOrderService()}
}

func (r *realClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realClient) NewGetAccountService() GetAccountService {
	return &realGetAccountService{service: r.client.NewGetAccountService()}
}

func (r *realClient) NewBookTickerService() BookTickerService {
	return &realBookTickerService{service: r.client.NewListBookTickersService()}
}

func (r *realClient) NewDepthService() DepthService {
	return &realDepthService{service: r.client.NewDepthService()}
}

func (r *realClient) NewKlinesService() KlinesService {
	return &realKlinesService{service: r.client.NewKlinesService()}
}

func (r *realClient) NewPingService() PingService {
	return &realPingService{service: r.client.NewPingService()}
}

type realCreateOrderService struct {
	service *gobinance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side gobinance.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType gobinance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif gobinance.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*gobinance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *gobinance.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrigClientOrderID(id string) GetOrderService {
	s.service = s.service.OrigClientOrderID(id)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*gobinance.Order, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *gobinance.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrigClientOrderID(id string) CancelOrderService {
	s.service = s.service.OrigClientOrderID(id)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*gobinance.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realBookTickerService struct {
	service *gobinance.ListBookTickersService
}

func (s *realBookTickerService) Symbol(symbol string) BookTickerService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realBookTickerService) Do(ctx context.Context) ([]*gobinance.BookTicker, error) {
	return s.service.Do(ctx)
}

type realDepthService struct {
	service *gobinance.DepthService
}

func (s *realDepthService) Symbol(symbol string) DepthService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realDepthService) Limit(limit int) DepthService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realDepthService) Do(ctx context.Context) (*gobinance.DepthResponse, error) {
	return s.service.Do(ctx)
}

type realGetAccountService struct {
	service *gobinance.GetAccountService
}

func (s *realGetAccountService) Do(ctx context.Context) (*gobinance.Account, error) {
	return s.service.Do(ctx)
}

type realPingService struct {
	service *gobinance.PingService
}

func (s *realPingService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

type realKlinesService struct {
	service *gobinance.KlinesService
}

func (s *realKlinesService) Symbol(symbol string) KlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realKlinesService) Interval(interval string) KlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *realKlinesService) StartTime(startTime int64) KlinesService {
	s.service = s.service.StartTime(startTime)

	return s
}

func (s *realKlinesService) EndTime(endTime int64) KlinesService {
	s.service = s.service.EndTime(endTime)

	return s
}

func (s *realKlinesService) Limit(limit int) KlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realKlinesService) Do(ctx context.Context) ([]*gobinance.Kline, error) {
	return s.service.Do(ctx)
}
