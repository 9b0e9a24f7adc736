package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidCategory   = errors.New("category name is required")
	ErrDuplicateCategory = errors.New("category already exists")
)

// InsufficientStockError reports a reservation that would oversell.
type InsufficientStockError struct {
	ProductID string
	Variant   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Variant == "" {
		return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
			e.ProductID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %s variant %s: requested %d, available %d",
		e.ProductID, e.Variant, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
