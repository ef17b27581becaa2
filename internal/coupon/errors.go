package coupon

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
)

var (
	ErrCouponNotFound = fmt.Errorf("coupon %w", apperr.ErrNotFound)
	ErrDuplicateCode  = fmt.Errorf("coupon code already exists: %w", apperr.ErrConflict)
	ErrInvalidCoupon  = fmt.Errorf("invalid coupon definition: %w", apperr.ErrInvalidInput)
)

// MinimumNotMetError reports how far a cart is from a coupon's minimum.
type MinimumNotMetError struct {
	Minimum  decimal.Decimal
	Subtotal decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("minimum order amount %s not met, subtotal is %s", e.Minimum.StringFixed(2), e.Subtotal.StringFixed(2))
}

func (e *MinimumNotMetError) Unwrap() error {
	return apperr.ErrMinimumNotMet
}

func (e *MinimumNotMetError) Shortfall() decimal.Decimal {
	return e.Minimum.Sub(e.Subtotal)
}
