package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// streamServer sends each connection one batch of messages and then closes it.
func streamServer(batches [][]string, subscribed chan<- string) (*httptest.Server, *atomic.Int32) {
	upgrader := websocket.Upgrader{}
	connections := &atomic.Int32{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := int(connections.Add(1)) - 1

		if subscribed != nil {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			subscribed <- string(message)
		}

		if n >= len(batches) {
			// Hold the connection open until the client leaves.
			_, _, _ = conn.ReadMessage()

			return
		}

		for _, message := range batches[n] {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
				return
			}
		}
	}))

	return server, connections
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func (suite *FeedTestSuite) newStream(url string) *WSStream {
	stream := NewWSStream(url, map[string]string{"BTCUSDT": "BTC/USDT"}, logger.NewNop())
	stream.InitialInterval = time.Millisecond
	stream.MaxInterval = 10 * time.Millisecond
	stream.ReadTimeout = 5 * time.Second

	return stream
}

func (suite *FeedTestSuite) TestWSStreamDecodesAndReconnects() {
	server, connections := streamServer([][]string{
		{
			`{"result":null,"id":1}`,
			`{"s":"BTCUSDT","b":"99.5","B":"1","a":"100.5","A":"2","E":1704067200000}`,
			`{"s":"ETHUSDT","b":"9","a":"11"}`,
		},
		{
			`{"stream":"btcusdt@bookTicker","data":{"s":"BTCUSDT","b":"100","a":"101","E":1704067201000}}`,
		},
	}, nil)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Update

	for u, err := range suite.newStream(wsURL(server)).Feed(ctx) {
		suite.Require().NoError(err)

		got = append(got, u)
		if len(got) == 2 {
			break
		}
	}

	suite.Require().Len(got, 2)
	suite.Equal("BTC/USDT", got[0].Symbol)
	suite.True(got[0].Ticker.Bid.Equal(d("99.5")))
	suite.True(got[0].Ticker.Ask.Equal(d("100.5")))
	suite.True(got[0].Timestamp.Equal(epoch))
	suite.True(got[1].Ticker.Ask.Equal(d("101")))
	suite.True(got[1].Timestamp.Equal(epoch.Add(time.Second)))
	suite.GreaterOrEqual(connections.Load(), int32(2))
}

func (suite *FeedTestSuite) TestWSStreamSendsSubscription() {
	subscribed := make(chan string, 4)
	server, _ := streamServer([][]string{{`{"s":"BTCUSDT","b":"99","a":"101"}`}}, subscribed)
	defer server.Close()

	stream := suite.newStream(wsURL(server))
	stream.Subscribe = []byte(`{"method":"SUBSCRIBE","params":["btcusdt@bookTicker"],"id":1}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for u, err := range stream.Feed(ctx) {
		suite.Require().NoError(err)
		suite.Equal("BTC/USDT", u.Symbol)

		break
	}

	suite.Contains(<-subscribed, "SUBSCRIBE")
}

func (suite *FeedTestSuite) TestWSStreamTimestampsStayMonotonic() {
	server, _ := streamServer([][]string{{
		`{"s":"BTCUSDT","b":"99","a":"101","E":1704067205000}`,
		`{"s":"BTCUSDT","b":"99","a":"101","E":1704067200000}`,
	}}, nil)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Update

	for u, err := range suite.newStream(wsURL(server)).Feed(ctx) {
		suite.Require().NoError(err)

		got = append(got, u)
		if len(got) == 2 {
			break
		}
	}

	suite.Require().Len(got, 2)
	suite.True(got[1].Timestamp.Equal(got[0].Timestamp))
	suite.True(got[1].Ticker.Timestamp.Equal(got[0].Timestamp))
}

func (suite *FeedTestSuite) TestWSStreamGivesUpAfterMaxReconnects() {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	stream := suite.newStream(url)
	stream.MaxReconnects = 3

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Collect(stream.Feed(ctx))
	suite.True(errors.HasCode(err, errors.ErrCodeDisconnected), "got %v", err)
}

func (suite *FeedTestSuite) TestWSStreamEndsWithContext() {
	server, _ := streamServer(nil, nil)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	got, err := Collect(suite.newStream(wsURL(server)).Feed(ctx))
	suite.NoError(err)
	suite.Empty(got)
}
