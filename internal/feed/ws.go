package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultReadTimeout      = 60 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
)

// WSStream follows a best bid/offer websocket stream in the Binance
// bookTicker format, reconnecting with exponential backoff when the
// connection drops. Messages without a known symbol are ignored.
type WSStream struct {
	URL string
	// Symbols maps the venue symbol carried in messages to BASE/QUOTE.
	Symbols map[string]string
	// Subscribe is sent once after every successful dial when set.
	Subscribe    []byte
	ReadTimeout  time.Duration
	PingInterval time.Duration
	// MaxReconnects bounds consecutive failed dials. Zero means unlimited.
	MaxReconnects   int
	InitialInterval time.Duration
	MaxInterval     time.Duration

	logger *logger.Logger
	now    func() time.Time
}

// NewWSStream creates a stream for url with the default timeouts.
func NewWSStream(url string, symbols map[string]string, log *logger.Logger) *WSStream {
	return &WSStream{
		URL:             url,
		Symbols:         symbols,
		ReadTimeout:     defaultReadTimeout,
		PingInterval:    30 * time.Second,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		logger:          log,
		now:             time.Now,
	}
}

type bookTickerMessage struct {
	Symbol    string          `json:"s"`
	Bid       decimal.Decimal `json:"b"`
	Ask       decimal.Decimal `json:"a"`
	EventTime int64           `json:"E"`
}

type combinedMessage struct {
	Stream string            `json:"stream"`
	Data   bookTickerMessage `json:"data"`
}

// Feed dials the stream and yields ticker updates until ctx is done. It ends
// with Disconnected once MaxReconnects consecutive dials have failed.
func (s *WSStream) Feed(ctx context.Context) Feed {
	return func(yield func(Update, error) bool) {
		retry := backoff.NewExponentialBackOff()
		retry.InitialInterval = s.InitialInterval
		retry.MaxInterval = s.MaxInterval
		retry.MaxElapsedTime = 0
		retry.Reset()

		var last time.Time

		failures := 0

		for ctx.Err() == nil {
			conn, err := s.connect(ctx)
			if err != nil {
				failures++
				s.logger.Warn("Feed connection failed", zap.String("url", s.URL), zap.Int("attempt", failures), zap.Error(err))

				if s.MaxReconnects > 0 && failures >= s.MaxReconnects {
					yield(Update{}, errors.Wrapf(errors.ErrCodeDisconnected, err, "feed %s unreachable after %d attempts", s.URL, failures))

					return
				}

				select {
				case <-ctx.Done():
					return
				case <-time.After(retry.NextBackOff()):
					continue
				}
			}

			failures = 0
			retry.Reset()

			if !s.process(ctx, conn, &last, yield) {
				return
			}
		}
	}
}

func (s *WSStream) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, s.URL, http.Header{})
	if err != nil {
		return nil, err
	}

	if len(s.Subscribe) > 0 {
		if err := conn.WriteMessage(websocket.TextMessage, s.Subscribe); err != nil {
			conn.Close()

			return nil, err
		}
	}

	s.logger.Info("Feed connected", zap.String("url", s.URL))

	return conn, nil
}

// process reads until the connection fails. It returns false when the
// consumer stopped or ctx is done.
func (s *WSStream) process(ctx context.Context, conn *websocket.Conn, last *time.Time, yield func(Update, error) bool) bool {
	done := make(chan struct{})
	defer close(done)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	if s.PingInterval > 0 {
		go s.pingLoop(conn, done)
	}

	for {
		if s.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return false
			}

			s.logger.Warn("Feed read failed, reconnecting", zap.String("url", s.URL), zap.Error(err))

			return true
		}

		update, ok := s.decode(payload)
		if !ok {
			continue
		}

		// Streams without event times are stamped on receipt; keep them monotonic.
		if update.Timestamp.Before(*last) {
			update.Timestamp = *last
			update.Ticker.Timestamp = *last
		}

		*last = update.Timestamp

		if !yield(update, nil) {
			return false
		}
	}
}

func (s *WSStream) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(defaultHandshakeTimeout)); err != nil {
				s.logger.Debug("Feed ping failed", zap.Error(err))

				return
			}
		}
	}
}

func (s *WSStream) decode(payload []byte) (Update, bool) {
	var combined combinedMessage
	if err := json.Unmarshal(payload, &combined); err != nil {
		s.logger.Debug("Ignoring undecodable feed message", zap.Error(err))

		return Update{}, false
	}

	message := combined.Data
	if combined.Stream == "" {
		if err := json.Unmarshal(payload, &message); err != nil {
			return Update{}, false
		}
	}

	symbol, ok := s.Symbols[message.Symbol]
	if !ok {
		return Update{}, false
	}

	timestamp := s.now().UTC()
	if message.EventTime > 0 {
		timestamp = time.UnixMilli(message.EventTime).UTC()
	}

	return TickerUpdate(types.Ticker{
		Symbol:    symbol,
		Bid:       message.Bid,
		Ask:       message.Ask,
		Timestamp: timestamp,
	}), true
}
