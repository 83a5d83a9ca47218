package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is one line in a cart. Name, price and image are snapshots taken at
// add time and are not re-fetched afterwards. Variant distinguishes
// otherwise-identical lines of the same product, e.g. a color.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Store persists one record per owner holding the cart's item lines as a
// flat array. An absent record is equivalent to an empty cart.
// Consumers define this interface, not the storage implementations.
type Store interface {
	Load(ctx context.Context, ownerID string) ([]Item, error)
	Save(ctx context.Context, ownerID string, items []Item) error
	Delete(ctx context.Context, ownerID string) error
}

// NormalizeItems repairs what it can of a stored cart and drops the rest:
// lines without a product id or with a negative price are removed, quantities
// below one are raised to one. Stored shape is never trusted as-is.
func NormalizeItems(items []Item) []Item {
	normalized := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if item.UnitPrice.IsNegative() {
			continue
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		normalized = append(normalized, item)
	}
	return normalized
}
