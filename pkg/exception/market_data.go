package exception

import "errors"

var (
	ErrInvalidQuote      = errors.New("market data: invalid quote field")
	ErrSymbolMismatch    = errors.New("market data: update targets another symbol")
	ErrUnknownInstrument = errors.New("market data: unknown instrument")
)
