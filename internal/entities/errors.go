package entities

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these so that
// handlers can map it to a response code with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrPrecondition     = errors.New("precondition failed")
	ErrPermissionDenied = errors.New("permission denied")
)

var (
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrWalletNotFound   = fmt.Errorf("wallet %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)

	ErrInvalidAmount = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)

	ErrCartEmpty           = fmt.Errorf("%w: shopping cart is empty", ErrPrecondition)
	ErrRechargeLimit       = fmt.Errorf("%w: recharge amount exceeds single-operation limit", ErrPrecondition)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrPrecondition)
	ErrInsufficientFrozen  = fmt.Errorf("%w: insufficient frozen balance", ErrPrecondition)
	ErrInsufficientStock   = fmt.Errorf("%w: insufficient stock", ErrPrecondition)
	ErrProductUnavailable  = fmt.Errorf("%w: product is not on sale", ErrPrecondition)

	ErrNotOrderOwner = fmt.Errorf("%w: order belongs to another user", ErrPermissionDenied)
)

// StateError reports an order lifecycle transition attempted from a
// state it is not defined for.
type StateError struct {
	Expected []OrderStatus
	Actual   OrderStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("order status is %q, expected one of %v", e.Actual, e.Expected)
}

func (e *StateError) Unwrap() error { return ErrPrecondition }

func NewStateError(actual OrderStatus, expected ...OrderStatus) *StateError {
	return &StateError{Expected: expected, Actual: actual}
}
