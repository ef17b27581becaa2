package cart

import (
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

var (
	// FreeShippingThreshold is exclusive: a subtotal equal to it still pays the fee.
	FreeShippingThreshold = decimal.NewFromInt(10000)
	DeliveryFee           = decimal.NewFromInt(1500)
)

func ShippingCost(delivery order.DeliveryType, subtotal decimal.Decimal) decimal.Decimal {
	if delivery != order.DeliveryHome {
		return decimal.Zero
	}
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return DeliveryFee
}

func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func SumLines(items []order.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}

// Reprice sets subtotal, shipping and total on o. The applied discount is
// kept but never allowed to exceed the new subtotal.
func Reprice(o *order.Order, subtotal decimal.Decimal) {
	o.Subtotal = subtotal
	o.ShippingCost = ShippingCost(o.DeliveryType, subtotal)
	if o.Discount.GreaterThan(subtotal) {
		o.Discount = subtotal
	}
	if o.Discount.IsNegative() {
		o.Discount = decimal.Zero
	}
	o.RefreshTotal()
}
