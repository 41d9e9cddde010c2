package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/papertide/storefront-api/internal/domain"
)

var errStoreStorageRequired = errors.New("cart store: storage is required")

// StoreDeps wires the persistence port and policies for a cart store
// instance.
type StoreDeps struct {
	Storage    Storage
	StorageKey string
	Identity   Identity
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

// Store holds the live cart state for one cart instance and mirrors every
// change to its persistence port. The reducer itself stays pure; the store
// only sequences dispatches and persistence.
type Store struct {
	mu       sync.Mutex
	state    domain.CartState
	storage  Storage
	key      string
	identity Identity
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewStore constructs a store and hydrates it from persisted storage. A
// malformed persisted payload is discarded and logged, never surfaced as an
// error: the store must always come up with a usable (possibly empty) cart.
func NewStore(ctx context.Context, deps StoreDeps) (*Store, error) {
	if deps.Storage == nil {
		return nil, errStoreStorageRequired
	}

	key := strings.TrimSpace(deps.StorageKey)
	if key == "" {
		return nil, errors.New("cart store: storage key is required")
	}

	identity := deps.Identity
	if identity == nil {
		identity = ProviderIdentity
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	store := &Store{
		state:    domain.EmptyCartState(),
		storage:  deps.Storage,
		key:      key,
		identity: identity,
		logger:   logger,
	}

	payload, found, err := deps.Storage.Load(ctx, key)
	if err != nil {
		logger(ctx, "cart.hydrate_failed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
		return store, nil
	}
	if found {
		items, err := DecodeItems(payload)
		if err != nil {
			logger(ctx, "cart.hydrate_discarded", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
			return store, nil
		}
		store.state = Reduce(store.state, LoadItems{Items: items}, identity)
	}

	return store, nil
}

// Dispatch applies the action and mirrors the resulting item list to
// storage. The returned state is a snapshot safe for the caller to keep.
func (s *Store) Dispatch(ctx context.Context, action Action) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, action, s.identity)

	payload, err := EncodeItems(s.state.Items)
	if err == nil {
		err = s.storage.Save(ctx, s.key, payload)
	}
	if err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{
			"key":   s.key,
			"error": err.Error(),
		})
	}

	return cloneState(s.state)
}

// State returns a snapshot of the current cart state.
func (s *Store) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}
