package order

import (
	"sort"

	"github.com/superalgorithm/superalgorithm/internal/types"
	"go.uber.org/zap"
)

// book records fill against the position of its symbol. The caller holds m.mu.
func (m *Manager) book(fill types.Fill) {
	position, ok := m.positions[fill.Symbol]
	if !ok {
		position = &types.Position{Symbol: fill.Symbol}
		m.positions[fill.Symbol] = position
	}

	trade := position.Apply(fill)
	m.trades = append(m.trades, trade)

	if trade.Effect != types.TradeEffectOpen {
		m.logger.Debug("Position reduced",
			zap.String("symbol", fill.Symbol),
			zap.String("trade_id", fill.TradeID),
			zap.String("pnl", trade.PnL.String()),
			zap.String("quantity", position.Quantity.String()))
	}
}

// Positions returns every position the manager's fills built, flat ones
// included, ordered by symbol.
func (m *Manager) Positions() []types.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p.Copy())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })

	return out
}

// Position returns the position of symbol.
func (m *Manager) Position(symbol string) (types.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.positions[symbol]
	if !ok {
		return types.Position{}, false
	}

	return p.Copy(), true
}

// Trades returns the booked trades of symbol in the order they were
// applied, or every trade when symbol is empty.
func (m *Manager) Trades(symbol string) []types.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Trade, 0, len(m.trades))
	for _, t := range m.trades {
		if symbol == "" || t.Fill.Symbol == symbol {
			out = append(out, t)
		}
	}

	return out
}
