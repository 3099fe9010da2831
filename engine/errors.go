package engine

import "errors"

var (
	ErrNotFound          = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTxConflict        = errors.New("transaction conflict")
	ErrTxClosed          = errors.New("transaction closed")
	ErrAccountExists     = errors.New("account exists")
)
