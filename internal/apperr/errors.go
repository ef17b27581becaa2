// Package apperr holds the error classes shared by every component of the
// ordering service. Component packages wrap these sentinels so callers can
// classify a failure with errors.Is without knowing which component raised it.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidState           = errors.New("invalid state")
	ErrConflict               = errors.New("conflict")
	ErrExpired                = errors.New("coupon expired")
	ErrNotYetActive           = errors.New("coupon not yet active")
	ErrRedemptionLimitReached = errors.New("coupon redemption limit reached")
	ErrPerClientLimitReached  = errors.New("coupon per-client limit reached")
	ErrMinimumNotMet          = errors.New("minimum order amount not met")
	ErrInsufficientPoints     = errors.New("insufficient loyalty points")
	ErrStorage                = errors.New("storage failure")
)

// StorageError wraps a persistence failure. It matches ErrStorage and the
// underlying driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// Storage wraps err as a StorageError for op. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Code returns a stable machine-readable name for the class of err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrStorage):
		return "storage_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotYetActive):
		return "not_yet_active"
	case errors.Is(err, ErrRedemptionLimitReached):
		return "redemption_limit_reached"
	case errors.Is(err, ErrPerClientLimitReached):
		return "per_client_limit_reached"
	case errors.Is(err, ErrMinimumNotMet):
		return "minimum_not_met"
	case errors.Is(err, ErrInsufficientPoints):
		return "insufficient_points"
	default:
		return "internal_error"
	}
}
