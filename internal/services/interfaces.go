package services

import (
	"context"
	"strings"

	domain "github.com/feastly/api/internal/domain"
)

// Requester identifies the authenticated caller for access control decisions.
type Requester struct {
	ID   string
	Role string
}

// IsAdmin reports whether the requester carries the administrative role.
func (r Requester) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(r.Role), "admin")
}

// CreateOrderItemInput is one requested line item. Product references that do
// not resolve are replaced with generated placeholders rather than rejected.
type CreateOrderItemInput struct {
	ProductRef  string
	ProductName string  `validate:"required"`
	Image       string
	Quantity    int     `validate:"required,min=1"`
	Price       float64 `validate:"min=0"`
}

// CreateOrderCommand carries the validated order creation request.
type CreateOrderCommand struct {
	OwnerID         string                 `validate:"required"`
	Items           []CreateOrderItemInput `validate:"required,min=1,dive"`
	ShippingAddress domain.Address
	PaymentMethod   string  `validate:"required"`
	TotalAmount     float64 `validate:"min=0"`
	Notes           string
}

// OrderListQuery bundles the pagination and filter arguments for listings.
// Zero Page and Limit fall back to the defaults (page 1, limit 10).
type OrderListQuery struct {
	Status string
	Page   int
	Limit  int
}

// OrderService exposes the order lifecycle: creation with derived fields,
// owner/admin-gated reads and mutations, and paginated listings.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	GetByID(ctx context.Context, orderID string, requester Requester) (domain.Order, error)
	ListForOwner(ctx context.Context, ownerID string, query OrderListQuery) (domain.Page[domain.Order], error)
	ListAll(ctx context.Context, query OrderListQuery) (domain.Page[domain.Order], error)
	UpdateStatus(ctx context.Context, orderID, newStatus string, requester Requester) (domain.Order, error)
	Delete(ctx context.Context, orderID string, requester Requester) error
}

// MenuFilter narrows catalog listings. Query matches case-folded substrings
// of the item name and description.
type MenuFilter struct {
	Category string
	Query    string
}

// CatalogService serves the orderable menu, seeding the starter catalog when
// the store is empty and falling back to it when the store is unreachable.
type CatalogService interface {
	ListMenu(ctx context.Context, filter MenuFilter) ([]domain.MenuItem, error)
}
