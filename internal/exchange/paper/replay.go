package paper

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/feed"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

// Apply replaces the synthetic liquidity of the update's symbol and fills
// resting orders the new prices cross. Updates older than the symbol's
// clock fail with FeedOutOfOrder.
func (e *Engine) Apply(update feed.Update) error {
	if err := update.Validate(); err != nil {
		return err
	}

	m, err := e.market(update.Symbol)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if update.Timestamp.Before(m.clock) {
		return errors.Newf(errors.ErrCodeFeedOutOfOrder,
			"%s update at %s is older than %s", m.symbol, update.Timestamp.Format(time.RFC3339Nano), m.clock.Format(time.RFC3339Nano))
	}

	m.clock = update.Timestamp
	m.book.clearSynthetic()

	bids, asks := e.syntheticLevels(m, update)
	for _, l := range asks {
		e.addSynthetic(m, types.SideSell, l, update.Timestamp)
	}

	for _, l := range bids {
		e.addSynthetic(m, types.SideBuy, l, update.Timestamp)
	}

	return nil
}

func (e *Engine) syntheticLevels(m *market, update feed.Update) ([]types.BookLevel, []types.BookLevel) {
	if b := update.Book; b != nil {
		if mark := bookMark(b); mark.IsPositive() {
			m.lastPrice = mark
		}

		return b.Bids, b.Asks
	}

	t := update.Ticker
	if mark := t.Mark(); mark.IsPositive() {
		m.lastPrice = mark
	}

	var bids, asks []types.BookLevel

	depth := e.config.SyntheticDepth
	if !depth.IsPositive() {
		return nil, nil
	}

	if t.Bid.IsPositive() {
		bids = append(bids, types.BookLevel{Price: t.Bid, Quantity: depth})
	}

	if t.Ask.IsPositive() {
		asks = append(asks, types.BookLevel{Price: t.Ask, Quantity: depth})
	}

	return bids, asks
}

func bookMark(b *types.BookSnapshot) decimal.Decimal {
	switch {
	case len(b.Bids) > 0 && len(b.Asks) > 0:
		return b.Bids[0].Price.Add(b.Asks[0].Price).Div(decimal.NewFromInt(2))
	case len(b.Bids) > 0:
		return b.Bids[0].Price
	case len(b.Asks) > 0:
		return b.Asks[0].Price
	default:
		return decimal.Zero
	}
}

// addSynthetic fills resting orders crossed by a feed level at their own
// price, then queues what is left of the level behind existing orders.
func (e *Engine) addSynthetic(m *market, side types.Side, l types.BookLevel, now time.Time) {
	if !l.Price.IsPositive() || !l.Quantity.IsPositive() {
		return
	}

	qty := l.Quantity
	opposite := side.Opposite()

	for qty.IsPositive() {
		best := m.book.best(opposite)
		if best == nil || !crosses(side, l.Price, best.price) {
			break
		}

		head := best.entries[0]
		if head.synthetic {
			// the feed itself is crossed; the rest of this level is dropped
			return
		}

		take := decimal.Min(qty, head.quantity)
		e.execute(m, m.orders[head.id], m.nextTradeID(), best.price, take, types.LiquidityMaker, now)
		m.consumeHead(opposite, best, take)

		qty = qty.Sub(take)
	}

	if qty.IsPositive() {
		m.syntheticSeq++
		m.book.add(side, l.Price, &entry{
			id:        fmt.Sprintf("%s-feed-%d", m.symbol, m.syntheticSeq),
			quantity:  qty,
			synthetic: true,
		})
	}
}

// Replay applies a finite feed in order and stops at the first error.
func (e *Engine) Replay(ctx context.Context, updates feed.Feed) error {
	for update, err := range updates {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.Apply(update); err != nil {
			return err
		}
	}

	return nil
}

// Follow applies a live feed until it ends or ctx is done. Stale updates,
// as seen after a stream reconnects, are skipped rather than fatal.
func (e *Engine) Follow(ctx context.Context, updates feed.Feed) error {
	for update, err := range updates {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return nil
		}

		if err := e.Apply(update); err != nil {
			if errors.HasCode(err, errors.ErrCodeFeedOutOfOrder) {
				e.logger.Warn("Skipping stale update", zap.String("symbol", update.Symbol), zap.Error(err))
				continue
			}

			return err
		}
	}

	return nil
}
