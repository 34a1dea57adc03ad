package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/feastly/api/internal/platform/firestore"
	"github.com/feastly/api/internal/repositories"
)

// Registry bundles the Firestore-backed repository implementations.
type Registry struct {
	provider *pfirestore.Provider

	orders    *OrderRepository
	menuItems *MenuItemRepository
	counters  *CounterRepository
}

// NewRegistry constructs every repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	menuItems, err := NewMenuItemRepository(provider)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:  provider,
		orders:    orders,
		menuItems: menuItems,
		counters:  counters,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// MenuItems returns the menu item repository.
func (r *Registry) MenuItems() repositories.MenuItemRepository { return r.menuItems }

// Counters returns the counter repository.
func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

var _ repositories.Registry = (*Registry)(nil)
