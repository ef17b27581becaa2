package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCart      Status = "carrito"
	StatusPending   Status = "pendiente"
	StatusConfirmed Status = "confirmado"
	StatusPreparing Status = "en_preparacion"
	StatusReady     Status = "listo"
	StatusCompleted Status = "completado"
	StatusCancelled Status = "cancelado"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusCart: {
		StatusPending:   true,
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusPreparing: true,
		StatusReady:     true,
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusPreparing: {
		StatusReady:     true,
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusReady: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

// ActiveStatuses are the states an order passes through in the kitchen.
var ActiveStatuses = []Status{StatusConfirmed, StatusPreparing, StatusReady}

type DeliveryType string

const (
	DeliveryPickup DeliveryType = "recoger_tienda"
	DeliveryHome   DeliveryType = "domicilio"
)

func (d DeliveryType) Valid() bool {
	return d == DeliveryPickup || d == DeliveryHome
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "efectivo"
	PaymentPayPal PaymentMethod = "paypal"
	PaymentSinpe  PaymentMethod = "sinpe"
	PaymentCard   PaymentMethod = "tarjeta"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentPayPal, PaymentSinpe, PaymentCard:
		return true
	}
	return false
}

// PaymentDetails carries the provider references stashed at checkout.
type PaymentDetails struct {
	PayPalOrderID     *string             `json:"paypal_order_id,omitempty"`
	PayPalPayerID     *string             `json:"paypal_payer_id,omitempty"`
	PayPalAmount      decimal.NullDecimal `json:"paypal_amount"`
	SinpeReceipt      *string             `json:"sinpe_receipt,omitempty"`
	SinpePhone        *string             `json:"sinpe_phone,omitempty"`
	CardLast4         *string             `json:"card_last4,omitempty"`
	CardAuthorization *string             `json:"card_authorization,omitempty"`
}

type LineItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Order struct {
	ID            uuid.UUID       `json:"id"`
	ClientID      int64           `json:"client_id"`
	Status        Status          `json:"status"`
	DeliveryType  DeliveryType    `json:"delivery_type"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	Total         decimal.Decimal `json:"total"`
	CouponCode    *string         `json:"coupon_code,omitempty"`
	BranchID      *int64          `json:"branch_id,omitempty"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty"`
	Payment       PaymentDetails  `json:"payment"`
	Items         []LineItem      `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// RefreshTotal sets Total = Subtotal - Discount + ShippingCost.
func (o *Order) RefreshTotal() {
	o.Total = o.Subtotal.Sub(o.Discount).Add(o.ShippingCost)
}
