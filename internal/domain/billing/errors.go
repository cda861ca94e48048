package billing

import (
	"errors"
	"fmt"
)

// Calculator errors. All of them describe malformed caller input and are not retriable.
var (
	ErrEmptyLineItems        = errors.New("empty line items")
	ErrInvalidDescription    = errors.New("invalid description")
	ErrInvalidCategory       = errors.New("invalid category")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidPrice          = errors.New("invalid price")
	ErrInvalidDiscount       = errors.New("invalid discount")
	ErrDiscountExceedsTotal  = errors.New("discount exceeds total")
	ErrInvalidPaymentAmount  = errors.New("invalid payment amount")
	ErrOverpaymentNotAllowed = errors.New("overpayment not allowed")
)

// ValidationError carries the offending field and, for line-item problems, its index.
// Index is -1 when the error is not tied to a line item.
type ValidationError struct {
	Field string
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("line item %d: %s: %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func itemError(index int, field string, err error) error {
	return &ValidationError{Field: field, Index: index, Err: err}
}

func fieldError(field string, err error) error {
	return &ValidationError{Field: field, Index: -1, Err: err}
}
