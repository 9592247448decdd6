package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/feed"
	"github.com/superalgorithm/superalgorithm/internal/types"
)

// QuoteGenerator generates ticker updates for tests and benchmarks of the
// paper venue.
type QuoteGenerator struct {
	rng *rand.Rand
}

// NewQuoteGenerator creates a generator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewQuoteGenerator(seed int64) *QuoteGenerator {
	return &QuoteGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how quotes are generated.
type GeneratorConfig struct {
	// Symbol is a BASE/QUOTE pair
	Symbol string
	// StartTime is the timestamp of the first quote
	StartTime time.Time
	// Interval is the duration between quotes
	Interval time.Duration
	// Count is the number of quotes to generate
	Count int
	// InitialPrice is the starting mid price
	InitialPrice float64
	// Volatility controls price movement per quote (0.01 = 1%)
	Volatility float64
	// Trend is the drift over the whole series (-0.01 to 0.01)
	Trend float64
	// Spread is the bid/ask spread as a fraction of the mid price
	Spread float64
	// Decimals is the price precision
	Decimals int32
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "BTC/USDT",
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     time.Second,
		Count:        10000,
		InitialPrice: 100.0,
		Volatility:   0.002,
		Trend:        0.0,
		Spread:       0.0004,
		Decimals:     4,
	}
}

// Generate returns quotes whose mid price follows a geometric Brownian motion.
func (g *QuoteGenerator) Generate(config GeneratorConfig) []feed.Update {
	out := make([]feed.Update, config.Count)
	mid := config.InitialPrice
	at := config.StartTime

	for i := 0; i < config.Count; i++ {
		// Box-Muller transform for a standard normal sample
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		next := mid * (1 + config.Volatility*z + config.Trend/float64(config.Count))
		if next <= 0 {
			next = mid * 0.99
		}

		mid = next
		half := mid * config.Spread / 2

		out[i] = feed.TickerUpdate(types.Ticker{
			Symbol:    config.Symbol,
			Bid:       price(mid-half, config.Decimals),
			Ask:       price(mid+half, config.Decimals),
			Last:      price(mid, config.Decimals),
			Timestamp: at,
		})

		at = at.Add(config.Interval)
	}

	return out
}

// GenerateMultiSymbol generates quotes for several symbols, merged into one
// timestamp-ordered series.
func (g *QuoteGenerator) GenerateMultiSymbol(symbols []string, base GeneratorConfig) []feed.Update {
	feeds := make([]feed.Feed, 0, len(symbols))

	for _, symbol := range symbols {
		config := base
		config.Symbol = symbol
		// vary price level and volatility per symbol
		config.InitialPrice = base.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = base.Volatility * (0.8 + g.rng.Float64()*0.4)

		feeds = append(feeds, feed.Slice(g.Generate(config)))
	}

	// generated series are ordered, so the merge cannot fail
	out, _ := feed.Collect(feed.Merge(feeds...))

	return out
}

// Generate10K generates 10,000 quotes with default settings for benchmarking.
func Generate10K(symbol string) []feed.Update {
	config := DefaultConfig()
	config.Symbol = symbol

	return NewQuoteGenerator(42).Generate(config)
}

func price(v float64, decimals int32) decimal.Decimal {
	p := decimal.NewFromFloat(v).Round(decimals)
	if !p.IsPositive() {
		return decimal.New(1, -decimals)
	}

	return p
}
