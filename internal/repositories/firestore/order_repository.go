package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/feastly/api/internal/domain"
	pfirestore "github.com/feastly/api/internal/platform/firestore"
	"github.com/feastly/api/internal/repositories"
)

const ordersCollection = "orders"

type orderItemDocument struct {
	ProductRef  string  `firestore:"product"`
	ProductName string  `firestore:"name"`
	Image       string  `firestore:"image"`
	Quantity    int     `firestore:"quantity"`
	Price       float64 `firestore:"price"`
	Subtotal    float64 `firestore:"subtotal"`
}

type addressDocument struct {
	Street     string `firestore:"street"`
	City       string `firestore:"city"`
	State      string `firestore:"state"`
	PostalCode string `firestore:"zipCode"`
	Country    string `firestore:"country"`
}

type ecoDocument struct {
	CO2SavedKg    float64 `firestore:"co2SavedKg"`
	BatchDelivery bool    `firestore:"batchDelivery"`
}

type deliveryDocument struct {
	EstimatedArrival time.Time `firestore:"estimatedArrival"`
	QualityScore     int       `firestore:"qualityScore"`
}

type orderDocument struct {
	OrderNumber     string              `firestore:"orderNumber"`
	UserID          string              `firestore:"user"`
	Items           []orderItemDocument `firestore:"items"`
	TotalAmount     float64             `firestore:"totalAmount"`
	Status          string              `firestore:"status"`
	ShippingAddress addressDocument     `firestore:"shippingAddress"`
	PaymentMethod   string              `firestore:"paymentMethod"`
	PaymentStatus   string              `firestore:"paymentStatus"`
	Eco             ecoDocument         `firestore:"ecoMetrics"`
	Delivery        deliveryDocument    `firestore:"deliveryMetrics"`
	Notes           string              `firestore:"notes"`
	CreatedAt       time.Time           `firestore:"createdAt"`
	UpdatedAt       time.Time           `firestore:"updatedAt"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	orders *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		orders: pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil),
	}, nil
}

// Insert persists a new order document, failing when the ID already exists.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.orders.Create(ctx, id, encodeOrder(order))
	return err
}

// FindByID loads an order by document ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(doc.ID, doc.Data), nil
}

// UpdateStatus applies a partial status update and returns the refreshed order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, patch repositories.OrderStatusPatch) (domain.Order, error) {
	updates := []firestore.Update{
		{Path: "status", Value: string(patch.Status)},
		{Path: "updatedAt", Value: patch.UpdatedAt.UTC()},
	}
	if patch.QualityScore != nil {
		updates = append(updates, firestore.Update{Path: "deliveryMetrics.qualityScore", Value: *patch.QualityScore})
	}

	if _, err := r.orders.Update(ctx, orderID, updates, firestore.Exists); err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, orderID)
}

// Delete removes the order document. A missing document surfaces as not found.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	return r.orders.Delete(ctx, orderID, firestore.Exists)
}

// List returns orders matching the filter, newest first, applying offset pagination.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	docs, err := r.orders.Query(ctx, func(query firestore.Query) firestore.Query {
		query = applyOrderFilter(query, filter)
		query = query.OrderBy("createdAt", firestore.Desc)
		if offset := listOffset(filter); offset > 0 {
			query = query.Offset(offset)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

// Count returns the total number of orders matching the filter, ignoring pagination.
func (r *OrderRepository) Count(ctx context.Context, filter repositories.OrderListFilter) (int64, error) {
	return r.orders.Count(ctx, func(query firestore.Query) firestore.Query {
		return applyOrderFilter(query, filter)
	})
}

func applyOrderFilter(query firestore.Query, filter repositories.OrderListFilter) firestore.Query {
	if uid := strings.TrimSpace(filter.UserID); uid != "" {
		query = query.Where("user", "==", uid)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status", "==", status)
	}
	return query
}

func listOffset(filter repositories.OrderListFilter) int {
	if filter.Page <= 1 || filter.Limit <= 0 {
		return 0
	}
	return (filter.Page - 1) * filter.Limit
}

func encodeOrder(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			ProductRef:  item.ProductRef,
			ProductName: item.ProductName,
			Image:       item.Image,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		})
	}

	return orderDocument{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		ShippingAddress: addressDocument{
			Street:     order.ShippingAddress.Street,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		Eco: ecoDocument{
			CO2SavedKg:    order.Eco.CO2SavedKg,
			BatchDelivery: order.Eco.BatchDelivery,
		},
		Delivery: deliveryDocument{
			EstimatedArrival: order.Delivery.EstimatedArrival.UTC(),
			QualityScore:     order.Delivery.QualityScore,
		},
		Notes:     order.Notes,
		CreatedAt: order.CreatedAt.UTC(),
		UpdatedAt: order.UpdatedAt.UTC(),
	}
}

func decodeOrder(id string, doc orderDocument) domain.Order {
	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.OrderItem{
			ProductRef:  item.ProductRef,
			ProductName: item.ProductName,
			Image:       item.Image,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		})
	}

	return domain.Order{
		ID:          id,
		OrderNumber: doc.OrderNumber,
		UserID:      doc.UserID,
		Items:       items,
		TotalAmount: doc.TotalAmount,
		Status:      domain.OrderStatus(doc.Status),
		ShippingAddress: domain.Address{
			Street:     doc.ShippingAddress.Street,
			City:       doc.ShippingAddress.City,
			State:      doc.ShippingAddress.State,
			PostalCode: doc.ShippingAddress.PostalCode,
			Country:    doc.ShippingAddress.Country,
		},
		PaymentMethod: domain.PaymentMethod(doc.PaymentMethod),
		PaymentStatus: domain.PaymentStatus(doc.PaymentStatus),
		Eco: domain.EcoMetrics{
			CO2SavedKg:    doc.Eco.CO2SavedKg,
			BatchDelivery: doc.Eco.BatchDelivery,
		},
		Delivery: domain.DeliveryMetrics{
			EstimatedArrival: doc.Delivery.EstimatedArrival,
			QualityScore:     doc.Delivery.QualityScore,
		},
		Notes:     doc.Notes,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
