package exception

import "errors"

var (
	ErrDuplicateOrderID     = errors.New("order: duplicate client order id")
	ErrUnknownOrderOnReport = errors.New("order: report references unknown client order id")
	ErrOrderValidation      = errors.New("order: invalid side/kind combination")
	ErrOrderMissingPrice    = errors.New("order: price required for non-market orders")
)
