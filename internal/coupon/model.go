package coupon

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	KindPercentage DiscountKind = "porcentaje"
	KindFixed      DiscountKind = "monto_fijo"
)

func (k DiscountKind) Valid() bool {
	return k == KindPercentage || k == KindFixed
}

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID                 uuid.UUID       `json:"id"`
	Code               string          `json:"code"`
	Description        string          `json:"description"`
	DiscountKind       DiscountKind    `json:"discount_kind"`
	DiscountValue      decimal.Decimal `json:"discount_value"`
	MinimumOrderAmount decimal.Decimal `json:"minimum_order_amount"`
	StartsOn           time.Time       `json:"starts_on"`
	EndsOn             time.Time       `json:"ends_on"`
	MaxRedemptions     *int            `json:"max_redemptions,omitempty"`
	MaxPerClient       int             `json:"max_per_client"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// DiscountFor returns the discount this coupon grants on subtotal, never
// more than the subtotal itself.
func (c *Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountKind {
	case KindPercentage:
		discount = subtotal.Mul(c.DiscountValue).Div(hundred).Round(2)
	default:
		discount = c.DiscountValue
	}

	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// InWindow reports whether day falls inside the inclusive validity window.
func (c *Coupon) InWindow(day time.Time) bool {
	return !day.Before(c.StartsOn) && !day.After(c.EndsOn)
}

type Usage struct {
	ID              uuid.UUID       `json:"id"`
	CouponID        uuid.UUID       `json:"coupon_id"`
	ClientID        int64           `json:"client_id"`
	OrderID         uuid.UUID       `json:"order_id"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	UsedAt          time.Time       `json:"used_at"`
}

// dateOf truncates t to a calendar day expressed at UTC midnight, the way
// DATE columns are scanned.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
