package enum

// OrderKind is the order type, mapped from FIX tag 40.
type OrderKind uint8

const (
	_order_kind_beg OrderKind = iota
	OrderKindMarket
	OrderKindLimit
	OrderKindStop
	_order_kind_end
)

func (k OrderKind) IsAvailable() bool {
	return k > _order_kind_beg && k < _order_kind_end
}

// FIXCode returns the tag 40 character code.
func (k OrderKind) FIXCode() string {
	switch k {
	case OrderKindMarket:
		return "1"
	case OrderKindLimit:
		return "2"
	case OrderKindStop:
		return "3"
	default:
		return "0"
	}
}

// OrderKindFromFIX maps a tag 40 character code to an OrderKind.
func OrderKindFromFIX(code string) OrderKind {
	switch code {
	case "1":
		return OrderKindMarket
	case "2":
		return OrderKindLimit
	case "3":
		return OrderKindStop
	default:
		return _order_kind_beg
	}
}

func (k OrderKind) String() string {
	switch k {
	case OrderKindMarket:
		return "market"
	case OrderKindLimit:
		return "limit"
	case OrderKindStop:
		return "stop"
	default:
		return "unknown"
	}
}
