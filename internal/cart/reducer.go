package cart

import (
	"github.com/papertide/storefront-api/internal/domain"
)

// Reduce applies an action to the state and returns the next state. The
// transition is pure: the input state is never mutated, and totals are
// recomputed from the item list after every item change. No action can
// fail; out-of-range inputs are clamped and unknown identities ignored.
func Reduce(state domain.CartState, action Action, identity Identity) domain.CartState {
	if identity == nil {
		identity = ProviderIdentity
	}

	switch a := action.(type) {
	case AddItem:
		next := cloneState(state)
		quantity := a.Item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		key := identity(a.Item)
		merged := false
		for i := range next.Items {
			if identity(next.Items[i]) == key {
				next.Items[i].Quantity += quantity
				merged = true
				break
			}
		}
		if !merged {
			item := a.Item
			item.Quantity = quantity
			next.Items = append(next.Items, item)
		}
		next.Recompute()
		return next

	case RemoveItem:
		next := cloneState(state)
		filtered := next.Items[:0]
		for _, item := range next.Items {
			if identity(item) != a.Key {
				filtered = append(filtered, item)
			}
		}
		next.Items = filtered
		next.Recompute()
		return next

	case UpdateQuantity:
		next := cloneState(state)
		if a.Quantity <= 0 {
			return Reduce(state, RemoveItem{Key: a.Key}, identity)
		}
		for i := range next.Items {
			if identity(next.Items[i]) == a.Key {
				next.Items[i].Quantity = a.Quantity
				break
			}
		}
		next.Recompute()
		return next

	case ClearCart:
		next := domain.EmptyCartState()
		next.IsOpen = state.IsOpen
		return next

	case ToggleCart:
		next := cloneState(state)
		next.IsOpen = !next.IsOpen
		return next

	case CloseCart:
		next := cloneState(state)
		next.IsOpen = false
		return next

	case LoadItems:
		next := cloneState(state)
		next.Items = cloneItems(a.Items)
		next.Recompute()
		return next
	}

	return state
}

func cloneState(state domain.CartState) domain.CartState {
	state.Items = cloneItems(state.Items)
	return state
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	if len(items) == 0 {
		return []domain.CartItem{}
	}
	dup := make([]domain.CartItem, len(items))
	copy(dup, items)
	return dup
}
