package http

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/coupon"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/loyalty"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

// Money is rendered as a fixed two-decimal string.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type LineItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
}

type PaymentResponse struct {
	Method            string  `json:"method"`
	PayPalOrderID     *string `json:"paypal_order_id,omitempty"`
	PayPalPayerID     *string `json:"paypal_payer_id,omitempty"`
	PayPalAmount      *string `json:"paypal_amount,omitempty"`
	SinpeReceipt      *string `json:"sinpe_receipt,omitempty"`
	SinpePhone        *string `json:"sinpe_phone,omitempty"`
	CardLast4         *string `json:"card_last4,omitempty"`
	CardAuthorization *string `json:"card_authorization,omitempty"`
}

type OrderResponse struct {
	ID           uuid.UUID          `json:"id"`
	ClientID     int64              `json:"client_id"`
	Status       string             `json:"status"`
	DeliveryType string             `json:"delivery_type"`
	BranchID     *int64             `json:"branch_id,omitempty"`
	CouponCode   *string            `json:"coupon_code,omitempty"`
	Subtotal     string             `json:"subtotal"`
	Discount     string             `json:"discount"`
	ShippingCost string             `json:"shipping_cost"`
	Total        string             `json:"total"`
	Payment      *PaymentResponse   `json:"payment,omitempty"`
	Items        []LineItemResponse `json:"items"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	ConfirmedAt  *time.Time         `json:"confirmed_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		ClientID:     o.ClientID,
		Status:       o.Status.String(),
		DeliveryType: string(o.DeliveryType),
		BranchID:     o.BranchID,
		CouponCode:   o.CouponCode,
		Subtotal:     money(o.Subtotal),
		Discount:     money(o.Discount),
		ShippingCost: money(o.ShippingCost),
		Total:        money(o.Total),
		Items:        make([]LineItemResponse, 0, len(o.Items)),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		ConfirmedAt:  o.ConfirmedAt,
		CompletedAt:  o.CompletedAt,
	}

	for _, item := range o.Items {
		resp.Items = append(resp.Items, LineItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: money(item.UnitPrice),
			Subtotal:  money(item.Subtotal),
		})
	}

	if o.PaymentMethod != nil {
		p := &PaymentResponse{
			Method:            string(*o.PaymentMethod),
			PayPalOrderID:     o.Payment.PayPalOrderID,
			PayPalPayerID:     o.Payment.PayPalPayerID,
			SinpeReceipt:      o.Payment.SinpeReceipt,
			SinpePhone:        o.Payment.SinpePhone,
			CardLast4:         o.Payment.CardLast4,
			CardAuthorization: o.Payment.CardAuthorization,
		}
		if o.Payment.PayPalAmount.Valid {
			amount := money(o.Payment.PayPalAmount.Decimal)
			p.PayPalAmount = &amount
		}
		resp.Payment = p
	}

	return resp
}

func toOrderResponses(orders []order.Order) []OrderResponse {
	resp := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	return resp
}

type CouponResponse struct {
	ID                 uuid.UUID `json:"id"`
	Code               string    `json:"code"`
	Description        string    `json:"description"`
	DiscountKind       string    `json:"discount_kind"`
	DiscountValue      string    `json:"discount_value"`
	MinimumOrderAmount string    `json:"minimum_order_amount"`
	StartsOn           string    `json:"starts_on"`
	EndsOn             string    `json:"ends_on"`
	MaxRedemptions     *int      `json:"max_redemptions,omitempty"`
	MaxPerClient       int       `json:"max_per_client"`
	Active             bool      `json:"active"`
}

func toCouponResponse(c *coupon.Coupon) CouponResponse {
	return CouponResponse{
		ID:                 c.ID,
		Code:               c.Code,
		Description:        c.Description,
		DiscountKind:       string(c.DiscountKind),
		DiscountValue:      money(c.DiscountValue),
		MinimumOrderAmount: money(c.MinimumOrderAmount),
		StartsOn:           c.StartsOn.Format(time.DateOnly),
		EndsOn:             c.EndsOn.Format(time.DateOnly),
		MaxRedemptions:     c.MaxRedemptions,
		MaxPerClient:       c.MaxPerClient,
		Active:             c.Active,
	}
}

func toCouponResponses(coupons []coupon.Coupon) []CouponResponse {
	resp := make([]CouponResponse, 0, len(coupons))
	for i := range coupons {
		resp = append(resp, toCouponResponse(&coupons[i]))
	}
	return resp
}

type BalanceResponse struct {
	UserID int64 `json:"user_id"`
	Points int64 `json:"points"`
}

type RedemptionResponse struct {
	Reward          loyalty.Reward  `json:"reward"`
	PointsSpent     int64           `json:"points_spent"`
	RemainingPoints int64           `json:"remaining_points"`
	Coupon          *CouponResponse `json:"coupon,omitempty"`
}

func toRedemptionResponse(r *loyalty.Redemption) RedemptionResponse {
	resp := RedemptionResponse{
		Reward:          r.Reward,
		PointsSpent:     r.PointsSpent,
		RemainingPoints: r.RemainingPoints,
	}
	if r.Coupon != nil {
		c := toCouponResponse(r.Coupon)
		resp.Coupon = &c
	}
	return resp
}

type ValidateCouponResponse struct {
	Valid  bool           `json:"valid"`
	Coupon CouponResponse `json:"coupon"`
}
