package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// PositionLedger accumulates signed net filled quantity and net canceled
// quantity per instrument. Buys count positive, sells negative; any other
// side code is a silent no-op.
type PositionLedger struct {
	filled   map[string]decimal.Decimal
	canceled map[string]decimal.Decimal
}

// NewPositionLedger creates an empty position ledger.
func NewPositionLedger() *PositionLedger {
	return &PositionLedger{
		filled:   make(map[string]decimal.Decimal),
		canceled: make(map[string]decimal.Decimal),
	}
}

// Track creates zeroed entries for the instrument if they do not exist yet.
func (l *PositionLedger) Track(symbol string) {
	if _, ok := l.filled[symbol]; !ok {
		l.filled[symbol] = decimal.Zero
	}
	if _, ok := l.canceled[symbol]; !ok {
		l.canceled[symbol] = decimal.Zero
	}
}

// AddFilled accumulates a signed fill quantity into the instrument's net
// position, creating the entry at zero if absent.
func (l *PositionLedger) AddFilled(symbol string, side enum.Side, qty decimal.Decimal) {
	signed, ok := signQuantity(side, qty)
	if !ok {
		return
	}
	l.filled[symbol] = l.filled[symbol].Add(signed)
}

// AddCanceled accumulates a signed quantity into the instrument's canceled
// quantity accumulator, creating the entry at zero if absent.
func (l *PositionLedger) AddCanceled(symbol string, side enum.Side, qty decimal.Decimal) {
	signed, ok := signQuantity(side, qty)
	if !ok {
		return
	}
	l.canceled[symbol] = l.canceled[symbol].Add(signed)
}

// NetPosition returns the net filled quantity for an instrument. Querying an
// instrument that was never tracked fails with ErrUnknownInstrument; callers
// treat that as a recoverable zero.
func (l *PositionLedger) NetPosition(symbol string) (decimal.Decimal, error) {
	qty, ok := l.filled[symbol]
	if !ok {
		return decimal.Zero, exception.ErrUnknownInstrument
	}
	return qty, nil
}

// CanceledQuantity returns the net canceled quantity for an instrument.
func (l *PositionLedger) CanceledQuantity(symbol string) (decimal.Decimal, error) {
	qty, ok := l.canceled[symbol]
	if !ok {
		return decimal.Zero, exception.ErrUnknownInstrument
	}
	return qty, nil
}

// Symbols returns the tracked instruments in ascending order.
func (l *PositionLedger) Symbols() []string {
	out := make([]string, 0, len(l.filled))
	for symbol := range l.filled {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Restore replaces the accumulators with recovered values.
func (l *PositionLedger) Restore(filled, canceled map[string]decimal.Decimal) {
	l.filled = make(map[string]decimal.Decimal, len(filled))
	l.canceled = make(map[string]decimal.Decimal, len(canceled))
	for symbol, qty := range filled {
		l.filled[symbol] = qty
	}
	for symbol, qty := range canceled {
		l.canceled[symbol] = qty
	}
	for symbol := range l.filled {
		l.Track(symbol)
	}
}

func signQuantity(side enum.Side, qty decimal.Decimal) (decimal.Decimal, bool) {
	switch side {
	case enum.SideBuy:
		return qty, true
	case enum.SideSell:
		return qty.Neg(), true
	default:
		return decimal.Zero, false
	}
}
