package domain

import (
	"strings"
	"time"
)

// OrderStatus enumerates the delivery lifecycle states an order can hold.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was captured but not yet acknowledged.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed indicates the restaurant accepted the order. Default at creation.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusPreparing indicates the kitchen is working on the order.
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusOutForDelivery indicates a courier picked the order up.
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	// OrderStatusShipped is kept for parity with bulk/merchandise orders.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether the given value is a member of the status enum.
// Any member may transition to any other member; there is no transition graph.
func ValidOrderStatus(value string) bool {
	for _, status := range OrderStatuses {
		if string(status) == value {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the synthetic payment state attached to an order.
type PaymentStatus string

const (
	// PaymentStatusPending is the schema default before capture.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusCompleted is set synchronously at creation; there is no gateway.
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusFailed marks a failed capture.
	PaymentStatusFailed PaymentStatus = "failed"
)

// PaymentMethod enumerates the accepted payment methods.
type PaymentMethod string

// Accepted payment methods. The mixed-case entries predate the snake_case
// convention and are kept for stored-document compatibility.
const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodUPI            PaymentMethod = "UPI"
	PaymentMethodCash           PaymentMethod = "Cash"
	PaymentMethodCard           PaymentMethod = "Card"
)

// PaymentMethods lists every accepted payment method.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPayPal,
	PaymentMethodBankTransfer,
	PaymentMethodCashOnDelivery,
	PaymentMethodUPI,
	PaymentMethodCash,
	PaymentMethodCard,
}

// ValidPaymentMethod reports whether the given value is an accepted payment method.
func ValidPaymentMethod(value string) bool {
	for _, method := range PaymentMethods {
		if string(method) == value {
			return true
		}
	}
	return false
}

// Order is the central persisted purchase aggregate.
type Order struct {
	ID              string
	OrderNumber     string
	UserID          string
	Items           []OrderItem
	TotalAmount     float64
	Status          OrderStatus
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	Eco             EcoMetrics
	Delivery        DeliveryMetrics
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a single line of an order, snapshotted at creation time.
type OrderItem struct {
	ProductRef  string
	ProductName string
	Image       string
	Quantity    int
	Price       float64
	Subtotal    float64
}

// ItemsTotal recomputes the order total from its line items.
func (o Order) ItemsTotal() float64 {
	var sum float64
	for _, item := range o.Items {
		sum += item.Price * float64(item.Quantity)
	}
	return sum
}

// Address is a flat shipping address.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// EcoMetrics carries the synthetic sustainability figures computed once at
// creation and frozen thereafter.
type EcoMetrics struct {
	CO2SavedKg    float64
	BatchDelivery bool
}

// DeliveryMetrics estimates arrival and tracks the freshness score the
// progression scheduler degrades over the delivery stages.
type DeliveryMetrics struct {
	EstimatedArrival time.Time
	QualityScore     int
}

// MenuItem is a catalog entry customers can order.
type MenuItem struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Image       string
	Category    string
	Available   bool
	MoodTags    []string
	Ingredients []Ingredient
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ingredient records a named ingredient and its declared origin.
type Ingredient struct {
	Name   string
	Origin string
}

// MatchesCategory reports whether the item belongs to the given category,
// ignoring case and surrounding whitespace.
func (m MenuItem) MatchesCategory(category string) bool {
	return strings.EqualFold(strings.TrimSpace(m.Category), strings.TrimSpace(category))
}

// Page is the fixed result envelope for offset-paginated listings.
type Page[T any] struct {
	Items       []T
	Total       int64
	PageCount   int
	CurrentPage int
}
