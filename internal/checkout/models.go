package checkout

import (
	"time"

	"github.com/shopspring/decimal"

	"cart-service/internal/cart"
)

// Customer holds the shipping fields entered at checkout. Validation tags
// mirror the storefront form: bounded name and address, a phone number of
// exactly eleven digits, and a city that exists in the delivery charge table.
type Customer struct {
	Name    string `json:"name" validate:"required,max=30"`
	Phone   string `json:"phone" validate:"required,len=11,number"`
	Address string `json:"address" validate:"required,max=100"`
	City    string `json:"city" validate:"required,oneof=Dhaka Other"`
}

// OrderDraft is the payload handed to the order service. It is assembled at
// submission time from the cart and the customer fields and discarded
// regardless of outcome; it is never persisted here.
type OrderDraft struct {
	Customer       Customer        `json:"customer"`
	Cart           []cart.Item     `json:"cart"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Total          decimal.Decimal `json:"total"`
	Date           time.Time       `json:"date"`
}
