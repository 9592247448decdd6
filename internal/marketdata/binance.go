package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange/binance"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// BinanceProvider reads book tickers, depth and balances from Binance spot.
type BinanceProvider struct {
	client binance.Client
	now    func() time.Time
}

var _ DataProvider = (*BinanceProvider)(nil)

func NewBinanceProvider(client binance.Client) *BinanceProvider {
	return &BinanceProvider{client: client, now: time.Now}
}

func (p *BinanceProvider) GetTicker(ctx context.Context, symbol string) (types.Ticker, error) {
	tickers, err := p.client.NewBookTickerService().Symbol(binance.VenueSymbol(symbol)).Do(ctx)
	if err != nil {
		return types.Ticker{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch book ticker from Binance", err)
	}

	if len(tickers) == 0 {
		return types.Ticker{}, errors.Newf(errors.ErrCodeNoPriceData, "no book ticker for %s", symbol)
	}

	bid, err := parseDecimal(tickers[0].BidPrice)
	if err != nil {
		return types.Ticker{}, err
	}

	ask, err := parseDecimal(tickers[0].AskPrice)
	if err != nil {
		return types.Ticker{}, err
	}

	return types.Ticker{Symbol: symbol, Bid: bid, Ask: ask, Last: decimal.Zero, Timestamp: p.now()}, nil
}

func (p *BinanceProvider) GetOrderBookSnapshot(ctx context.Context, symbol string, depth int) (types.BookSnapshot, error) {
	service := p.client.NewDepthService().Symbol(binance.VenueSymbol(symbol))
	if depth > 0 {
		service = service.Limit(depth)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return types.BookSnapshot{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch depth from Binance", err)
	}

	snapshot := types.BookSnapshot{Symbol: symbol, Timestamp: p.now()}

	for _, b := range resp.Bids {
		level, err := parseLevel(b.Price, b.Quantity)
		if err != nil {
			return types.BookSnapshot{}, err
		}

		snapshot.Bids = append(snapshot.Bids, level)
	}

	for _, a := range resp.Asks {
		level, err := parseLevel(a.Price, a.Quantity)
		if err != nil {
			return types.BookSnapshot{}, err
		}

		snapshot.Asks = append(snapshot.Asks, level)
	}

	return snapshot, nil
}

func (p *BinanceProvider) GetBalanceSnapshot(ctx context.Context) (map[string]types.Balance, error) {
	account, err := p.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to get account info from Binance", err)
	}

	return binance.ConvertBalances(account)
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid decimal %q", raw)
	}

	return v, nil
}

func parseLevel(price, quantity string) (types.BookLevel, error) {
	p, err := parseDecimal(price)
	if err != nil {
		return types.BookLevel{}, err
	}

	q, err := parseDecimal(quantity)
	if err != nil {
		return types.BookLevel{}, err
	}

	return types.BookLevel{Price: p, Quantity: q}, nil
}
