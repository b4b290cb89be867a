package utils

import "errors"

// Closed error taxonomy for the fulfillment core. Services wrap these with
// fmt.Errorf("...: %w", ...) and the HTTP boundary maps them to status
// codes in HandleServiceError.
var (
	ErrValidation            = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrOutOfStock            = errors.New("out of stock")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrAmountMismatch        = errors.New("amount mismatch")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrAlreadyProcessed      = errors.New("already processed")
	ErrOrderState            = errors.New("order is not in a valid state for this operation")
	ErrDatabaseError         = errors.New("database error")
)
