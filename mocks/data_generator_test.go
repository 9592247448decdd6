package mocks

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange/paper"
	"github.com/superalgorithm/superalgorithm/internal/logger"
)

func TestQuoteGenerator_Generate(t *testing.T) {
	gen := NewQuoteGenerator(42)
	config := DefaultConfig()
	config.Count = 100

	data := gen.Generate(config)

	if len(data) != 100 {
		t.Fatalf("expected 100 quotes, got %d", len(data))
	}

	for i, u := range data {
		if err := u.Validate(); err != nil {
			t.Errorf("invalid update at index %d: %v", i, err)
		}

		if u.Symbol != config.Symbol {
			t.Errorf("expected symbol %s at index %d, got %s", config.Symbol, i, u.Symbol)
		}

		if !u.Ticker.Bid.IsPositive() || !u.Ticker.Bid.LessThan(u.Ticker.Ask) {
			t.Errorf("crossed or empty quote at index %d: bid=%s ask=%s", i, u.Ticker.Bid, u.Ticker.Ask)
		}

		if i > 0 && u.Timestamp.Sub(data[i-1].Timestamp) != config.Interval {
			t.Errorf("unexpected interval at index %d", i)
		}
	}
}

func TestQuoteGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()
	config.Count = 10

	data1 := NewQuoteGenerator(42).Generate(config)
	data2 := NewQuoteGenerator(42).Generate(config)

	for i := range data1 {
		if !data1[i].Ticker.Last.Equal(data2[i].Ticker.Last) {
			t.Errorf("quotes not reproducible at index %d: got %s and %s",
				i, data1[i].Ticker.Last, data2[i].Ticker.Last)
		}
	}
}

func TestQuoteGenerator_DifferentSeeds(t *testing.T) {
	config := DefaultConfig()
	config.Count = 10

	data1 := NewQuoteGenerator(42).Generate(config)
	data2 := NewQuoteGenerator(123).Generate(config)

	same := 0
	for i := range data1 {
		if data1[i].Ticker.Last.Equal(data2[i].Ticker.Last) {
			same++
		}
	}

	if same == len(data1) {
		t.Error("different seeds produced identical quotes")
	}
}

func TestGenerateMultiSymbol(t *testing.T) {
	symbols := []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"}
	config := DefaultConfig()
	config.Count = 100

	data := NewQuoteGenerator(42).GenerateMultiSymbol(symbols, config)

	if len(data) != len(symbols)*config.Count {
		t.Fatalf("expected %d quotes, got %d", len(symbols)*config.Count, len(data))
	}

	counts := make(map[string]int)
	for i, u := range data {
		counts[u.Symbol]++

		if i > 0 && u.Timestamp.Before(data[i-1].Timestamp) {
			t.Errorf("merged quotes out of order at index %d", i)
		}
	}

	for _, symbol := range symbols {
		if counts[symbol] != config.Count {
			t.Errorf("expected %d quotes for %s, got %d", config.Count, symbol, counts[symbol])
		}
	}
}

func TestGeneratedQuotesDrivePaperVenue(t *testing.T) {
	engine, err := paper.NewEngine(paper.Config{
		Balances:        map[string]decimal.Decimal{"USDT": decimal.NewFromInt(1000)},
		MarketRemainder: paper.RejectRemainder,
		SyntheticDepth:  decimal.NewFromInt(5),
	}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	for i, u := range Generate10K("BTC/USDT")[:500] {
		if err := engine.Apply(u); err != nil {
			t.Fatalf("apply at index %d: %v", i, err)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Count != 10000 {
		t.Errorf("expected default count 10000, got %d", config.Count)
	}

	if config.Interval != time.Second {
		t.Errorf("expected default interval 1s, got %v", config.Interval)
	}

	if config.InitialPrice != 100.0 {
		t.Errorf("expected default initial price 100.0, got %f", config.InitialPrice)
	}
}
