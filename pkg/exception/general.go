package exception

import "errors"

// General errors
var (
	ErrNilInstance     = errors.New("nil instance")
	ErrNilSession      = errors.New("session is not attached")
	ErrInvalidArgument = errors.New("invalid argument")
)
