package repositories

import (
	"context"
	"time"

	domain "github.com/feastly/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	MenuItems() MenuItemRepository
	Counters() CounterRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderListFilter captures the query surface for order listings. An empty
// UserID means the listing is unscoped (admin view).
type OrderListFilter struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

// OrderStatusPatch is the partial update a status transition applies. The
// quality score is only written when set; UpdatedAt is always refreshed.
type OrderStatusPatch struct {
	Status       domain.OrderStatus
	QualityScore *int
	UpdatedAt    time.Time
}

// OrderRepository persists order documents and provides query helpers for
// owners and admins. List results are sorted by creation time descending.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, patch OrderStatusPatch) (domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	Count(ctx context.Context, filter OrderListFilter) (int64, error)
}

// MenuItemRepository persists the menu catalog.
type MenuItemRepository interface {
	ListAvailable(ctx context.Context) ([]domain.MenuItem, error)
	InsertMany(ctx context.Context, items []domain.MenuItem) ([]domain.MenuItem, error)
}

// CounterRepository provides atomic sequence values. Next increments the
// counter identified by counterID by step (repository default when step<=0)
// and returns the resulting value.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}
