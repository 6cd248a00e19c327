package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid card state for this operation")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAlreadySold         = errors.New("serial number already sold")
	ErrOracleUnavailable   = errors.New("price oracle unavailable")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrUplineAlreadySet    = errors.New("upline already set")
	ErrRequestDecided      = errors.New("request already decided")
)
