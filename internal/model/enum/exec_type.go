package enum

// ExecType is the execution report type, mapped from FIX tag 150.
type ExecType uint8

const (
	ExecTypeUnknown ExecType = iota
	ExecTypeNew
	ExecTypeCanceled
	ExecTypeTrade
	ExecTypeOrderStatus
)

// ExecTypeFromFIX maps a tag 150 character code to an ExecType.
func ExecTypeFromFIX(code string) ExecType {
	switch code {
	case "0":
		return ExecTypeNew
	case "4":
		return ExecTypeCanceled
	case "F":
		return ExecTypeTrade
	case "I":
		return ExecTypeOrderStatus
	default:
		return ExecTypeUnknown
	}
}

// IsStatusOnly reports whether the report carries only an updated status.
// Such reports answer an order status request and have no quantity fields.
func (t ExecType) IsStatusOnly() bool {
	return t == ExecTypeOrderStatus
}
