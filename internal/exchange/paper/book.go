package paper

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/types"
)

// entry is one queue position at a price level. Synthetic entries stand for
// liquidity taken from the market data feed; the others are resting orders.
type entry struct {
	id        string
	quantity  decimal.Decimal
	synthetic bool
}

type level struct {
	price   decimal.Decimal
	entries []*entry
}

func (l *level) quantity() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.entries {
		total = total.Add(e.quantity)
	}

	return total
}

// book keeps bids best (highest) first and asks best (lowest) first. Each
// level is a FIFO queue, so the head of the best level has priority.
type book struct {
	bids []*level
	asks []*level
}

func newBook() *book {
	return &book{}
}

func (b *book) levels(side types.Side) *[]*level {
	if side == types.SideBuy {
		return &b.bids
	}

	return &b.asks
}

// better reports whether price a ranks ahead of price b on side.
func better(side types.Side, a, b decimal.Decimal) bool {
	if side == types.SideBuy {
		return a.GreaterThan(b)
	}

	return a.LessThan(b)
}

// crosses reports whether a taker on side with the given limit trades
// against a resting level at price.
func crosses(side types.Side, limit, price decimal.Decimal) bool {
	if side == types.SideBuy {
		return price.LessThanOrEqual(limit)
	}

	return price.GreaterThanOrEqual(limit)
}

func (b *book) find(side types.Side, price decimal.Decimal) (int, bool) {
	lv := *b.levels(side)
	i := sort.Search(len(lv), func(i int) bool {
		return !better(side, lv[i].price, price)
	})

	return i, i < len(lv) && lv[i].price.Equal(price)
}

// add appends e at the tail of the level at price, creating it if needed.
func (b *book) add(side types.Side, price decimal.Decimal, e *entry) {
	lv := b.levels(side)

	i, found := b.find(side, price)
	if found {
		(*lv)[i].entries = append((*lv)[i].entries, e)
		return
	}

	*lv = append(*lv, nil)
	copy((*lv)[i+1:], (*lv)[i:])
	(*lv)[i] = &level{price: price, entries: []*entry{e}}
}

func (b *book) best(side types.Side) *level {
	lv := *b.levels(side)
	if len(lv) == 0 {
		return nil
	}

	return lv[0]
}

// dropEmptyBest removes the best level of side if it has no entries left.
func (b *book) dropEmptyBest(side types.Side) {
	lv := b.levels(side)
	if len(*lv) > 0 && len((*lv)[0].entries) == 0 {
		*lv = (*lv)[1:]
	}
}

// remove deletes the entry with id from the level at price.
func (b *book) remove(side types.Side, price decimal.Decimal, id string) bool {
	i, found := b.find(side, price)
	if !found {
		return false
	}

	lv := b.levels(side)
	l := (*lv)[i]

	for j, e := range l.entries {
		if e.id != id || e.synthetic {
			continue
		}

		l.entries = append(l.entries[:j], l.entries[j+1:]...)
		if len(l.entries) == 0 {
			*lv = append((*lv)[:i], (*lv)[i+1:]...)
		}

		return true
	}

	return false
}

// clearSynthetic removes all feed liquidity, keeping resting orders in place.
func (b *book) clearSynthetic() {
	for _, side := range []types.Side{types.SideBuy, types.SideSell} {
		lv := b.levels(side)
		kept := (*lv)[:0]

		for _, l := range *lv {
			entries := l.entries[:0]
			for _, e := range l.entries {
				if !e.synthetic {
					entries = append(entries, e)
				}
			}

			l.entries = entries
			if len(entries) > 0 {
				kept = append(kept, l)
			}
		}

		for i := len(kept); i < len(*lv); i++ {
			(*lv)[i] = nil
		}

		*lv = kept
	}
}

// sweep walks the liquidity a taker on side would consume, up to qty and
// bounded by limit when bounded is set. It returns the fillable quantity
// and its cost in quote terms.
func (b *book) sweep(side types.Side, qty, limit decimal.Decimal, bounded bool) (decimal.Decimal, decimal.Decimal) {
	filled, cost := decimal.Zero, decimal.Zero

	for _, l := range *b.levels(side.Opposite()) {
		if bounded && !crosses(side, limit, l.price) {
			break
		}

		take := decimal.Min(qty.Sub(filled), l.quantity())
		filled = filled.Add(take)
		cost = cost.Add(take.Mul(l.price))

		if filled.GreaterThanOrEqual(qty) {
			break
		}
	}

	return filled, cost
}

// snapshot aggregates up to depth levels per side; depth <= 0 means all.
func (b *book) snapshot(depth int) ([]types.BookLevel, []types.BookLevel) {
	return aggregate(b.bids, depth), aggregate(b.asks, depth)
}

func aggregate(levels []*level, depth int) []types.BookLevel {
	if depth <= 0 || depth > len(levels) {
		depth = len(levels)
	}

	out := make([]types.BookLevel, 0, depth)
	for _, l := range levels[:depth] {
		out = append(out, types.BookLevel{Price: l.price, Quantity: l.quantity()})
	}

	return out
}
