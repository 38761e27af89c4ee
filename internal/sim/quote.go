package sim

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// QuoteGenerator produces synthetic quote updates as a random walk around a
// base price. Each step emits the prices and the sizes of one depth level as
// two separate partial updates, the way venues stream them.
type QuoteGenerator struct {
	rng     *rand.Rand
	symbols []string
	depths  int
	mid     decimal.Decimal
	spread  decimal.Decimal
	step    decimal.Decimal
	index   int
}

// NewQuoteGenerator creates a generator cycling through the given symbols.
func NewQuoteGenerator(seed int64, symbols []string, depths int, basePrice decimal.Decimal) *QuoteGenerator {
	if depths <= 0 {
		depths = 1
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if basePrice.Sign() <= 0 {
		basePrice = decimal.New(10850, -4)
	}
	return &QuoteGenerator{
		rng:     rand.New(rand.NewSource(seed)),
		symbols: symbols,
		depths:  depths,
		mid:     basePrice,
		spread:  basePrice.Div(decimal.NewFromInt(10000)),
		step:    basePrice.Div(decimal.NewFromInt(100000)),
	}
}

// Next returns the partial updates for one symbol at one depth.
func (g *QuoteGenerator) Next(now time.Time) []model.MarketDataUpdate {
	if len(g.symbols) == 0 {
		return nil
	}
	symbol := g.symbols[g.index%len(g.symbols)]
	d := g.index % g.depths
	g.index++

	walk := decimal.NewFromInt(int64(g.rng.Intn(5)) - 2)
	g.mid = g.mid.Add(g.step.Mul(walk))

	offset := g.spread.Mul(decimal.NewFromInt(int64(d + 1)))
	bid := g.mid.Sub(offset)
	ask := g.mid.Add(offset)
	bidSize := decimal.NewFromInt(int64(g.rng.Intn(9)+1) * 100000)
	askSize := decimal.NewFromInt(int64(g.rng.Intn(9)+1) * 100000)

	return []model.MarketDataUpdate{
		{Symbol: symbol, Depth: &d, Bid: &bid, Ask: &ask, Time: now},
		{Symbol: symbol, Depth: &d, BidSize: &bidSize, AskSize: &askSize, Time: now},
	}
}
