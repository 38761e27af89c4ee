package enum

// OrderStatus tracks the lifecycle state of an order, mapped from FIX tag 39.
type OrderStatus uint8

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusNew
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusDoneForDay
	OrderStatusCanceled
	OrderStatusPendingCancel
	OrderStatusRejected
	OrderStatusExpired
)

// OrderStatusFromFIX maps a tag 39 character code to an OrderStatus.
func OrderStatusFromFIX(code string) OrderStatus {
	switch code {
	case "0":
		return OrderStatusNew
	case "1":
		return OrderStatusPartiallyFilled
	case "2":
		return OrderStatusFilled
	case "3":
		return OrderStatusDoneForDay
	case "4":
		return OrderStatusCanceled
	case "6":
		return OrderStatusPendingCancel
	case "8":
		return OrderStatusRejected
	case "C":
		return OrderStatusExpired
	default:
		return OrderStatusUnknown
	}
}

// FIXCode returns the tag 39 character code.
func (s OrderStatus) FIXCode() string {
	switch s {
	case OrderStatusNew:
		return "0"
	case OrderStatusPartiallyFilled:
		return "1"
	case OrderStatusFilled:
		return "2"
	case OrderStatusDoneForDay:
		return "3"
	case OrderStatusCanceled:
		return "4"
	case OrderStatusPendingCancel:
		return "6"
	case OrderStatusRejected:
		return "8"
	case OrderStatusExpired:
		return "C"
	default:
		return "?"
	}
}

// IsRejectClass reports whether the status removes the order without any
// quantity effect: canceled, pending cancel or rejected.
func (s OrderStatus) IsRejectClass() bool {
	switch s {
	case OrderStatusCanceled, OrderStatusPendingCancel, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// IsDoneForDayClass reports whether the status only removes the order from
// the open set. Expired collapses to the same handling.
func (s OrderStatus) IsDoneForDayClass() bool {
	switch s {
	case OrderStatusDoneForDay, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are expected.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected,
		OrderStatusDoneForDay, OrderStatusExpired:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return "new"
	case OrderStatusPartiallyFilled:
		return "partially_filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusDoneForDay:
		return "done_for_day"
	case OrderStatusCanceled:
		return "canceled"
	case OrderStatusPendingCancel:
		return "pending_cancel"
	case OrderStatusRejected:
		return "rejected"
	case OrderStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}
