package order

import "errors"

var (
	ErrNotFound              = errors.New("order not found")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrMissingCustomer       = errors.New("customer identifier, name and phone are required")
	ErrInvalidJustification  = errors.New("cancellation justification is required")
	ErrAlreadyTerminal       = errors.New("order is already picked up or cancelled")
	ErrJustificationRequired = errors.New("cancelling requires a justification, use Cancel")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInvalidStatus         = errors.New("unknown order status")
)
