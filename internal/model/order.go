package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// Order is an open order owned by the ledger from registration until a
// terminal execution report removes it.
type Order struct {
	ClOrdID     int64            `json:"clOrdId"`
	Symbol      string           `json:"symbol"`
	Side        enum.Side        `json:"side"`
	Kind        enum.OrderKind   `json:"kind"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	MinQuantity decimal.Decimal  `json:"minQuantity"`
	LeavesQty   decimal.Decimal  `json:"leavesQty"`
	CumQty      decimal.Decimal  `json:"cumQty"`
	Deviation   decimal.Decimal  `json:"deviation"`
	TTLMillis   int64            `json:"ttlMillis"`
	Status      enum.OrderStatus `json:"status"`
	OpenTime    time.Time        `json:"openTime"`
}

// NewOrder builds an order from a combined side/kind name such as
// "buy_market" or "sell_limit". Leaves quantity starts at the full quantity.
func NewOrder(orderType, symbol string, price *decimal.Decimal, quantity decimal.Decimal) (Order, error) {
	side, kind, err := ParseOrderType(orderType)
	if err != nil {
		return Order{}, err
	}
	o := Order{
		Symbol:    symbol,
		Side:      side,
		Kind:      kind,
		Price:     price,
		Quantity:  quantity,
		LeavesQty: quantity,
		TTLMillis: 300,
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ParseOrderType splits a combined side/kind name into its enums.
func ParseOrderType(orderType string) (enum.Side, enum.OrderKind, error) {
	switch orderType {
	case "buy_market":
		return enum.SideBuy, enum.OrderKindMarket, nil
	case "buy_limit":
		return enum.SideBuy, enum.OrderKindLimit, nil
	case "buy_stop":
		return enum.SideBuy, enum.OrderKindStop, nil
	case "sell_market":
		return enum.SideSell, enum.OrderKindMarket, nil
	case "sell_limit":
		return enum.SideSell, enum.OrderKindLimit, nil
	case "sell_stop":
		return enum.SideSell, enum.OrderKindStop, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", exception.ErrOrderValidation, orderType)
	}
}

// Validate checks the fields required before an order may be transmitted.
// Market orders need no price; limit and stop orders do.
func (o Order) Validate() error {
	if !o.Side.IsAvailable() || !o.Kind.IsAvailable() {
		return exception.ErrOrderValidation
	}
	if o.Kind != enum.OrderKindMarket && o.Price == nil {
		return exception.ErrOrderMissingPrice
	}
	if o.Quantity.Sign() <= 0 {
		return fmt.Errorf("%w: quantity must be positive", exception.ErrOrderValidation)
	}
	return nil
}

func (o Order) String() string {
	price := "-"
	if o.Price != nil {
		price = o.Price.String()
	}
	return fmt.Sprintf("ClOrdID: %d, symbol: %s, side: %s, kind: %s, quantity: %s, leaves: %s, price: %s, status: %s",
		o.ClOrdID, o.Symbol, o.Side, o.Kind, o.Quantity, o.LeavesQty, price, o.Status)
}
