package cart

import (
	"fmt"

	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
)

var (
	ErrItemNotFound       = fmt.Errorf("cart item %w", apperr.ErrNotFound)
	ErrInvalidQuantity    = fmt.Errorf("quantity must be greater than zero: %w", apperr.ErrInvalidInput)
	ErrProductUnavailable = fmt.Errorf("product is not available: %w", apperr.ErrInvalidState)
	ErrCartClosed         = fmt.Errorf("order is no longer a cart: %w", apperr.ErrInvalidState)
	ErrBranchUnavailable  = fmt.Errorf("active branch %w", apperr.ErrNotFound)
)
