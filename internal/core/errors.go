package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel validation errors. Handlers map these to HTTP 400.
var (
	ErrEmptySale         = errors.New("sale must have at least one item")
	ErrInvalidQuantity   = errors.New("item quantity must be positive")
	ErrInvalidDiscount   = errors.New("invalid discount descriptor")
	ErrPaymentTarget     = errors.New("payment must reference exactly one of customer or supplier")
	ErrPaymentRetarget   = errors.New("payment target cannot be changed after creation")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrProductReferenced = errors.New("product is referenced by sale history and cannot be hard-deleted")
)

// NotFoundError reports a missing (or soft-deleted) referenced row.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// PriceMismatchError reports a client/server pricing disagreement beyond
// tolerance. Security-relevant: both values are carried for logging.
type PriceMismatchError struct {
	ProductID string
	Expected  decimal.Decimal
	Submitted decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch for product %s: expected %s, submitted %s",
		e.ProductID, e.Expected.StringFixed(2), e.Submitted.StringFixed(2))
}

// InsufficientStockError reports a stock guard failure. Available is the
// stock observed when the conditional update failed.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
