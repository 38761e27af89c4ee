package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketDataUpdate is a decoded, possibly partial quote update for one depth
// level. Fields are nil until the venue has populated them; a level can be
// completed incrementally across several updates.
type MarketDataUpdate struct {
	Symbol  string
	Depth   *int
	Bid     *decimal.Decimal
	Ask     *decimal.Decimal
	BidSize *decimal.Decimal
	AskSize *decimal.Decimal
	Time    time.Time
}

// Empty reports whether the update carries no quote fields at all.
func (u MarketDataUpdate) Empty() bool {
	return u.Bid == nil && u.Ask == nil && u.BidSize == nil && u.AskSize == nil
}
