package cart

import (
	"strings"

	"github.com/papertide/storefront-api/internal/domain"
)

// Identity derives the merge key for a cart item. The same reducer serves
// both cart flavours; only the identity policy differs between them.
type Identity func(item domain.CartItem) string

// ProviderIdentity keys items by (productId, variantId), the identity used
// for the fulfillment-provider cart.
func ProviderIdentity(item domain.CartItem) string {
	return strings.TrimSpace(item.ProductID) + "|" + strings.TrimSpace(item.VariantID)
}

// CompositeIdentity keys items by the `productId-color-size` composite used
// for the generic catalog cart.
func CompositeIdentity(item domain.CartItem) string {
	return domain.CompositeItemKey(item.ProductID, item.Color, item.Size)
}
