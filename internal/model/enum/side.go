package enum

// Side is the order side, mapped from FIX tag 54.
type Side uint8

const (
	_side_beg Side = iota
	SideBuy
	SideSell
	_side_end
)

func (s Side) IsAvailable() bool {
	return s > _side_beg && s < _side_end
}

// FIXCode returns the tag 54 character code.
func (s Side) FIXCode() string {
	switch s {
	case SideBuy:
		return "1"
	case SideSell:
		return "2"
	default:
		return "0"
	}
}

// SideFromFIX maps a tag 54 character code to a Side.
func SideFromFIX(code string) Side {
	switch code {
	case "1":
		return SideBuy
	case "2":
		return SideSell
	default:
		return _side_beg
	}
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}
