package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CartItem is one product/variant/quantity/price tuple held ahead of checkout.
type CartItem struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

// LineTotal returns price multiplied by quantity for the item.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartState is the authoritative view of the cart: an ordered item list plus
// derived totals and a UI visibility flag. Total and ItemCount are cache,
// always recomputable from Items alone.
type CartState struct {
	Items     []CartItem
	Total     decimal.Decimal
	ItemCount int
	IsOpen    bool
}

// EmptyCartState returns a closed cart with no items and zero totals.
func EmptyCartState() CartState {
	return CartState{Items: []CartItem{}, Total: decimal.Zero}
}

// Recompute derives Total and ItemCount from the item list.
func (s *CartState) Recompute() {
	total := decimal.Zero
	count := 0
	for _, item := range s.Items {
		if item.Quantity <= 0 {
			continue
		}
		total = total.Add(item.LineTotal())
		count += item.Quantity
	}
	s.Total = total
	s.ItemCount = count
}

// Customer carries optional contact details collected alongside the cart.
type Customer struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ShippingSelection is the carrier rate chosen during checkout.
type ShippingSelection struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// CompositeItemKey builds the generic-cart identity `productId-color-size`,
// skipping empty segments.
func CompositeItemKey(productID, color, size string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{productID, color, size} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "-")
}
