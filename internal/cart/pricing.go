package cart

import "github.com/shopspring/decimal"

// City selectors recognized by the delivery charge table. Any other value,
// including the empty "nothing selected yet" state, ships for zero until a
// real selection is made.
const (
	CityDhaka = "Dhaka"
	CityOther = "Other"
)

var (
	deliveryChargeDhaka = decimal.NewFromInt(80)
	deliveryChargeOther = decimal.NewFromInt(130)
)

// KnownCity reports whether the selector is present in the charge table.
func KnownCity(city string) bool {
	return city == CityDhaka || city == CityOther
}

// DeliveryCharge is a pure lookup of the flat fee for the selected city.
func DeliveryCharge(city string) decimal.Decimal {
	switch city {
	case CityDhaka:
		return deliveryChargeDhaka
	case CityOther:
		return deliveryChargeOther
	default:
		return decimal.Zero
	}
}

// Subtotal sums unit price times quantity over all lines.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// Total is the subtotal plus the delivery charge for the selected city.
func Total(items []Item, city string) decimal.Decimal {
	return Subtotal(items).Add(DeliveryCharge(city))
}

// Quote is the read view handed to consumers: the ordered lines plus the
// three derived amounts for a given city selector.
type Quote struct {
	Items          []Item          `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
}

// QuoteFor computes the derived amounts for the given lines and city.
func QuoteFor(items []Item, city string) Quote {
	subtotal := Subtotal(items)
	charge := DeliveryCharge(city)
	return Quote{
		Items:          items,
		Subtotal:       subtotal,
		DeliveryCharge: charge,
		Total:          subtotal.Add(charge),
	}
}
