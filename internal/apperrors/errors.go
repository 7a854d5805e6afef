package apperrors

import "errors"

// Sentinel errors shared by repositories, services and handlers.
// Wrap them with fmt.Errorf("...: %w", ErrX) and match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrConflict          = errors.New("already exists")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrEmptyCart         = errors.New("cart is empty")
)
