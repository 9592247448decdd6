package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange/paper"
	"github.com/superalgorithm/superalgorithm/internal/feed"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/order"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// binanceServer serves minute klines closing at 100, 101 and 102, one
// depth snapshot, and a bookTicker stream that sends ticks then idles.
func binanceServer(ticks []string) *httptest.Server {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, _ *http.Request) {
		rows := make([]string, 0, 3)
		for i := range 3 {
			open := epoch.Add(time.Duration(i) * time.Minute).UnixMilli()
			rows = append(rows, fmt.Sprintf(`[%d,"100","103","99","%d","10",%d,"1000",5,"5","500","0"]`,
				open, 100+i, open+59_999))
		}

		_, _ = fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
	})

	mux.HandleFunc("/api/v3/depth", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"lastUpdateId":1,"bids":[["99","2"]],"asks":[["101","2"]]}`))
	})

	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, tick := range ticks {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tick)); err != nil {
				return
			}
		}

		_, _, _ = conn.ReadMessage()
	})

	return httptest.NewServer(mux)
}

func bookTicker(bid, ask string) string {
	return fmt.Sprintf(`{"stream":"btcusdt@bookTicker","data":{"s":"BTCUSDT","b":"%s","a":"%s"}}`, bid, ask)
}

func (suite *ReplayTestSuite) newEngine() *paper.Engine {
	engine, err := paper.NewEngine(paper.Config{
		Balances:        map[string]decimal.Decimal{"USDT": decimal.NewFromInt(1000)},
		MarketRemainder: paper.RejectRemainder,
		SyntheticDepth:  decimal.NewFromInt(1),
	}, logger.NewNop())
	suite.Require().NoError(err)

	return engine
}

func (suite *ReplayTestSuite) TestBinanceKlinesSource() {
	server := binanceServer(nil)
	defer server.Close()

	source := Source{
		Format:     formatBinanceKlines,
		Symbols:    []string{"BTC/USDT"},
		From:       epoch,
		To:         epoch.Add(time.Hour),
		Interval:   "1m",
		BinanceURL: server.URL,
	}

	updates, closeFeed, err := source.Open(context.Background(), logger.NewNop())
	suite.Require().NoError(err)
	defer closeFeed()

	got, err := feed.Collect(updates)
	suite.Require().NoError(err)
	suite.Require().Len(got, 3)
	suite.Equal(epoch.Add(time.Minute-time.Millisecond), got[0].Timestamp)
	suite.True(got[2].Ticker.Mark().Equal(decimal.NewFromInt(102)), got[2].Ticker.Mark().String())
}

func (suite *ReplayTestSuite) TestCommandWithBinanceKlines() {
	server := binanceServer(nil)
	defer server.Close()

	configPath := suite.write("run.yaml", `
version: main
strategy: {id: cli}
venue: {type: paper, config: {balances: {USDT: "1000"}, market_remainder: reject-remainder, synthetic_depth: "1"}}
`)

	err := newCommand().Run(context.Background(), []string{
		"replay", "--config", configPath, "--feed-format", formatBinanceKlines,
		"--symbols", "BTC/USDT", "--from", "2024-03-01T00:00:00Z", "--to", "2024-03-01T01:00:00Z",
		"--binance-url", server.URL, "--log-level", "error",
	})
	suite.NoError(err)
}

func (suite *ReplayTestSuite) TestLiveStreamFollowsSeededBook() {
	server := binanceServer([]string{bookTicker("100", "100.5"), bookTicker("100.2", "100.6"), bookTicker("100.1", "100.4")})
	defer server.Close()

	source := Source{
		Format:     formatBinanceWS,
		Path:       "ws" + strings.TrimPrefix(server.URL, "http") + "/stream",
		Symbols:    []string{"BTC/USDT"},
		BinanceURL: server.URL,
		SeedDepth:  5,
	}
	suite.True(source.Live())

	engine := suite.newEngine()
	suite.Require().NoError(source.Seed(context.Background(), engine, logger.NewNop()))

	book, err := engine.GetOrderBookSnapshot(context.Background(), "BTC/USDT", 5)
	suite.Require().NoError(err)
	suite.Require().NotEmpty(book.Asks)
	suite.True(book.Asks[0].Price.Equal(decimal.NewFromInt(101)))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	updates, closeFeed, err := source.Open(ctx, logger.NewNop())
	suite.Require().NoError(err)
	defer closeFeed()

	manager := order.NewManager(engine, order.Config{StrategyID: "live"}, logger.NewNop())
	steps := []Step{{
		At: epoch, Action: ActionSubmit, ClientOrderID: "buy", Symbol: "BTC/USDT",
		Side: types.SideBuy, Type: types.OrderTypeMarket, Quantity: "0.5",
	}}

	replayer := NewReplayer(engine, manager, steps, nil, logger.NewNop())
	replayer.Live = true

	summary, err := replayer.Run(ctx, updates)
	suite.Require().NoError(err)

	suite.Equal(3, summary.Updates)
	suite.Require().Len(summary.Fills, 1)
	suite.True(summary.Fills[0].Price.Equal(decimal.RequireFromString("100.5")), summary.Fills[0].Price.String())
	suite.Require().Len(summary.Positions, 1)
	suite.Equal(types.PositionSideLong, summary.Positions[0].Side())
	suite.True(summary.Marks["BTC/USDT"].Equal(decimal.RequireFromString("100.25")), summary.Marks["BTC/USDT"].String())
	suite.Equal(types.VenueStatusConnected, summary.Session.Status)
}

func (suite *ReplayTestSuite) TestSourceValidation() {
	testCases := []struct {
		name   string
		source Source
		code   errors.ErrorCode
	}{
		{name: "csv without path", source: Source{Format: formatCSV}, code: errors.ErrCodeMissingParameter},
		{name: "klines without symbols", source: Source{Format: formatBinanceKlines, From: epoch, To: epoch.Add(time.Hour)}, code: errors.ErrCodeMissingParameter},
		{name: "klines with empty range", source: Source{Format: formatBinanceKlines, Symbols: []string{"BTC/USDT"}, From: epoch, To: epoch}, code: errors.ErrCodeInvalidParameter},
		{name: "polygon without ticker", source: Source{Format: formatPolygon, Symbols: []string{"BTC/USDT"}, From: epoch, To: epoch.Add(time.Hour), Interval: "1m"}, code: errors.ErrCodeMissingParameter},
		{name: "polygon bad interval", source: Source{Format: formatPolygon, Symbols: []string{"BTC/USDT"}, PolygonTicker: "X:BTCUSD", From: epoch, To: epoch.Add(time.Hour), Interval: "1y"}, code: errors.ErrCodeInvalidParameter},
		{name: "live without symbols", source: Source{Format: formatBinanceWS}, code: errors.ErrCodeMissingParameter},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, _, err := tc.source.Open(context.Background(), logger.NewNop())
			suite.True(errors.HasCode(err, tc.code), "%v", err)
		})
	}
}

func (suite *ReplayTestSuite) TestPolygonInterval() {
	multiplier, timespan, err := polygonInterval("15m")
	suite.Require().NoError(err)
	suite.Equal(15, multiplier)
	suite.Equal(models.Minute, timespan)

	_, timespan, err = polygonInterval("1d")
	suite.Require().NoError(err)
	suite.Equal(models.Day, timespan)

	_, _, err = polygonInterval("m")
	suite.Error(err)
}
