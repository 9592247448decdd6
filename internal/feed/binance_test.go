package feed

import (
	"context"
	"fmt"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/superalgorithm/superalgorithm/internal/exchange/binance"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

type klinesCall struct {
	symbol    string
	interval  string
	startTime int64
	endTime   int64
}

type fakeKlines struct {
	pages [][]*gobinance.Kline
	err   error
	calls []klinesCall
	call  klinesCall
}

func (f *fakeKlines) Symbol(symbol string) binance.KlinesService {
	f.call.symbol = symbol

	return f
}

func (f *fakeKlines) Interval(interval string) binance.KlinesService {
	f.call.interval = interval

	return f
}

func (f *fakeKlines) StartTime(startTime int64) binance.KlinesService {
	f.call.startTime = startTime

	return f
}

func (f *fakeKlines) EndTime(endTime int64) binance.KlinesService {
	f.call.endTime = endTime

	return f
}

func (f *fakeKlines) Limit(int) binance.KlinesService { return f }

func (f *fakeKlines) Do(context.Context) ([]*gobinance.Kline, error) {
	f.calls = append(f.calls, f.call)
	if f.err != nil {
		return nil, f.err
	}

	if len(f.pages) == 0 {
		return nil, nil
	}

	page := f.pages[0]
	f.pages = f.pages[1:]

	return page, nil
}

type fakeKlinesClient struct {
	binance.Client
	klines *fakeKlines
}

func (f *fakeKlinesClient) NewKlinesService() binance.KlinesService { return f.klines }

func minuteKlines(from, count int) []*gobinance.Kline {
	klines := make([]*gobinance.Kline, 0, count)
	for i := from; i < from+count; i++ {
		open := epoch.Add(time.Duration(i) * time.Minute)
		klines = append(klines, &gobinance.Kline{
			OpenTime:  open.UnixMilli(),
			CloseTime: open.Add(time.Minute).UnixMilli() - 1,
			Close:     fmt.Sprintf("%d", 100+i),
		})
	}

	return klines
}

func (suite *FeedTestSuite) TestBinanceKlinesPagesUntilShortPage() {
	klines := &fakeKlines{pages: [][]*gobinance.Kline{minuteKlines(0, binanceKlineLimit), minuteKlines(binanceKlineLimit, 3)}}
	source := BinanceKlines{
		Client:   &fakeKlinesClient{klines: klines},
		Symbol:   "BTC/USDT",
		Interval: "1m",
		Start:    epoch,
		End:      epoch.Add(24 * time.Hour),
	}

	got, err := Collect(source.Feed(context.Background()))
	suite.Require().NoError(err)
	suite.Len(got, binanceKlineLimit+3)
	suite.Require().Len(klines.calls, 2)
	suite.Equal("BTCUSDT", klines.calls[0].symbol)
	suite.Equal("1m", klines.calls[0].interval)
	suite.Equal(epoch.UnixMilli(), klines.calls[0].startTime)
	suite.Equal(epoch.Add(binanceKlineLimit*time.Minute).UnixMilli(), klines.calls[1].startTime)

	first := got[0]
	suite.Equal("BTC/USDT", first.Symbol)
	suite.True(first.Ticker.Last.Equal(d("100")))
	suite.True(first.Timestamp.Equal(epoch.Add(time.Minute - time.Millisecond)))
}

func (suite *FeedTestSuite) TestBinanceKlinesErrors() {
	klines := &fakeKlines{err: fmt.Errorf("boom")}
	source := BinanceKlines{Client: &fakeKlinesClient{klines: klines}, Symbol: "BTC/USDT", Interval: "1m", Start: epoch, End: epoch.Add(time.Hour)}

	_, err := Collect(source.Feed(context.Background()))
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))

	bad := minuteKlines(0, 1)
	bad[0].Close = "n/a"
	klines = &fakeKlines{pages: [][]*gobinance.Kline{bad}}
	source.Client = &fakeKlinesClient{klines: klines}

	_, err = Collect(source.Feed(context.Background()))
	suite.True(errors.HasCode(err, errors.ErrCodeFeedParse))
}
