package book

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/pkg/exception"
)

// Level holds the observed quote fields at one depth. Fields are nil until
// the venue has sent them; they only move from unset to set, never back.
type Level struct {
	Bid     *decimal.Decimal
	Ask     *decimal.Decimal
	BidSize *decimal.Decimal
	AskSize *decimal.Decimal
}

// Complete reports whether all four fields have been observed.
func (l Level) Complete() bool {
	return l.Bid != nil && l.Ask != nil && l.BidSize != nil && l.AskSize != nil
}

// Tick is a completed quote row at one depth.
type Tick struct {
	Time    time.Time
	Depth   int
	Bid     decimal.Decimal
	Ask     decimal.Decimal
	BidSize decimal.Decimal
	AskSize decimal.Decimal
}

// TopOfBook is the cached best bid/ask pair.
type TopOfBook struct {
	Time time.Time
	Bid  decimal.Decimal
	Ask  decimal.Decimal
}

// DepthBook aggregates partial, depth-indexed quote updates for a single
// instrument and derives a consistent top of book.
type DepthBook struct {
	symbol string
	levels map[int]*Level

	// smallest depth at which a bid/ask has ever been observed, -1 until set.
	lowestBidDepth int
	lowestAskDepth int

	tobBid    decimal.Decimal
	tobAsk    decimal.Decimal
	hasTOBBid bool
	hasTOBAsk bool
}

// New creates an empty book for the given symbol.
func New(symbol string) *DepthBook {
	return &DepthBook{
		symbol:         symbol,
		levels:         make(map[int]*Level),
		lowestBidDepth: -1,
		lowestAskDepth: -1,
	}
}

// Symbol returns the instrument this book belongs to.
func (b *DepthBook) Symbol() string {
	return b.symbol
}

// ApplyUpdate merges a partial quote update into the book.
//
// Updates without a depth index or without any quote field are ignored.
// A Tick is returned only when the touched depth has all four fields
// populated after the update; a TopOfBook is returned alongside it when the
// update also changed a cached top-of-book value. Bid and ask top-of-book
// refreshes key off their own depth tracks.
func (b *DepthBook) ApplyUpdate(u model.MarketDataUpdate) (*Tick, *TopOfBook, error) {
	if u.Symbol != b.symbol {
		return nil, nil, exception.ErrSymbolMismatch
	}
	if u.Depth == nil || u.Empty() {
		return nil, nil, nil
	}
	depth := *u.Depth
	if depth < 0 {
		return nil, nil, exception.ErrInvalidQuote
	}
	for _, field := range []*decimal.Decimal{u.Bid, u.Ask, u.BidSize, u.AskSize} {
		if field != nil && field.Sign() < 0 {
			return nil, nil, exception.ErrInvalidQuote
		}
	}

	lvl, ok := b.levels[depth]
	if !ok {
		lvl = &Level{}
		b.levels[depth] = lvl
	}

	tobChanged := false
	if u.Bid != nil {
		if depth < b.lowestBidDepth || b.lowestBidDepth == -1 {
			b.lowestBidDepth = depth
		}
		bid := *u.Bid
		lvl.Bid = &bid
		if depth == b.lowestBidDepth {
			if !b.hasTOBBid || !b.tobBid.Equal(bid) {
				tobChanged = true
			}
			b.tobBid = bid
			b.hasTOBBid = true
		}
	}
	if u.Ask != nil {
		if depth < b.lowestAskDepth || b.lowestAskDepth == -1 {
			b.lowestAskDepth = depth
		}
		ask := *u.Ask
		lvl.Ask = &ask
		if depth == b.lowestAskDepth {
			if !b.hasTOBAsk || !b.tobAsk.Equal(ask) {
				tobChanged = true
			}
			b.tobAsk = ask
			b.hasTOBAsk = true
		}
	}
	if u.BidSize != nil {
		size := *u.BidSize
		lvl.BidSize = &size
	}
	if u.AskSize != nil {
		size := *u.AskSize
		lvl.AskSize = &size
	}

	// only surface complete levels
	if !lvl.Complete() {
		return nil, nil, nil
	}

	tick := &Tick{
		Time:    u.Time,
		Depth:   depth,
		Bid:     *lvl.Bid,
		Ask:     *lvl.Ask,
		BidSize: *lvl.BidSize,
		AskSize: *lvl.AskSize,
	}
	if !tobChanged {
		return tick, nil, nil
	}
	return tick, &TopOfBook{Time: u.Time, Bid: b.tobBid, Ask: b.tobAsk}, nil
}

// Best returns the cached top-of-book bid and ask.
func (b *DepthBook) Best() (bid, ask decimal.Decimal) {
	return b.tobBid, b.tobAsk
}

// Level returns a copy of the stored level at the given depth.
func (b *DepthBook) Level(depth int) (Level, bool) {
	lvl, ok := b.levels[depth]
	if !ok {
		return Level{}, false
	}
	return *lvl, true
}

// Depths returns the observed depth indexes in ascending order.
func (b *DepthBook) Depths() []int {
	out := make([]int, 0, len(b.levels))
	for depth := range b.levels {
		out = append(out, depth)
	}
	sort.Ints(out)
	return out
}

// LowestBidDepth returns the smallest depth at which a bid was observed.
func (b *DepthBook) LowestBidDepth() (int, bool) {
	return b.lowestBidDepth, b.lowestBidDepth != -1
}

// LowestAskDepth returns the smallest depth at which an ask was observed.
func (b *DepthBook) LowestAskDepth() (int, bool) {
	return b.lowestAskDepth, b.lowestAskDepth != -1
}
