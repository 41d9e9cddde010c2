package cart

import (
	"github.com/papertide/storefront-api/internal/domain"
)

// Action is the sealed set of cart state transitions. Every variant is
// handled explicitly by Reduce; the marker method keeps the set closed to
// this package.
type Action interface {
	isAction()
}

// AddItem appends the item, or merges quantities when an item with the same
// identity already exists.
type AddItem struct {
	Item domain.CartItem
}

// RemoveItem drops the item with the given identity key. Unknown keys are a
// no-op.
type RemoveItem struct {
	Key string
}

// UpdateQuantity sets the quantity for the identified item; a resulting
// quantity of zero or less removes the item entirely.
type UpdateQuantity struct {
	Key      string
	Quantity int
}

// ClearCart empties the item list and zeroes totals.
type ClearCart struct{}

// ToggleCart flips the UI visibility flag without touching items.
type ToggleCart struct{}

// CloseCart clears the UI visibility flag without touching items.
type CloseCart struct{}

// LoadItems replaces the item list wholesale, used on construction when
// hydrating from persisted storage.
type LoadItems struct {
	Items []domain.CartItem
}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateQuantity) isAction() {}
func (ClearCart) isAction()      {}
func (ToggleCart) isAction()     {}
func (CloseCart) isAction()      {}
func (LoadItems) isAction()      {}
