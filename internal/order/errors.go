package order

import (
	"fmt"

	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
)

var (
	ErrOrderNotFound       = fmt.Errorf("order %w", apperr.ErrNotFound)
	ErrNoActiveCart        = fmt.Errorf("active cart %w", apperr.ErrNotFound)
	ErrEmptyCart           = fmt.Errorf("cart has no items: %w", apperr.ErrInvalidState)
	ErrNoBranchSelected    = fmt.Errorf("no branch selected for cart: %w", apperr.ErrInvalidState)
	ErrInvalidTransition   = fmt.Errorf("order status transition not allowed: %w", apperr.ErrInvalidState)
	ErrInvalidTargetStatus = fmt.Errorf("unsupported target status: %w", apperr.ErrInvalidInput)
	ErrInvalidPayment      = fmt.Errorf("unsupported payment method: %w", apperr.ErrInvalidInput)
	ErrMissingPaymentRef   = fmt.Errorf("payment reference is required: %w", apperr.ErrInvalidInput)
	ErrInvalidDeliveryType = fmt.Errorf("unsupported delivery type: %w", apperr.ErrInvalidInput)
)
