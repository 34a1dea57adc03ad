package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/feastly/api/internal/domain"
	"github.com/feastly/api/internal/platform/auth"
	"github.com/feastly/api/internal/platform/httpx"
	"github.com/feastly/api/internal/platform/pagination"
	"github.com/feastly/api/internal/platform/requestctx"
	"github.com/feastly/api/internal/services"
)

// OrderHandlers exposes the order lifecycle endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs the handler set.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the order endpoints on the provided router. Authentication
// middleware is applied by the router to the whole group; the admin listing
// additionally checks the requester role in the handler.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Post("/", h.createOrder)
	r.Get("/", h.listAllOrders)
	r.Get("/my-orders", h.listMyOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Put("/{orderID}/status", h.updateOrderStatus)
	r.Delete("/{orderID}", h.deleteOrder)
}

type orderItemRequest struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type addressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	ShippingAddress addressRequest     `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	TotalAmount     float64            `json:"totalAmount"`
	Notes           string             `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var payload createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cmd := services.CreateOrderCommand{
		OwnerID:       requester.ID,
		PaymentMethod: payload.PaymentMethod,
		TotalAmount:   payload.TotalAmount,
		Notes:         payload.Notes,
		ShippingAddress: domain.Address{
			Street:     payload.ShippingAddress.Street,
			City:       payload.ShippingAddress.City,
			State:      payload.ShippingAddress.State,
			PostalCode: payload.ShippingAddress.ZipCode,
			Country:    payload.ShippingAddress.Country,
		},
	}
	for _, item := range payload.Items {
		cmd.Items = append(cmd.Items, services.CreateOrderItemInput{
			ProductRef:  item.ProductID,
			ProductName: item.Name,
			Image:       item.Image,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	order, err := h.orders.Create(r.Context(), cmd)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"order":   orderPayloadFrom(order),
	})
}

func (h *OrderHandlers) listMyOrders(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	query, ok := listQueryFromRequest(w, r)
	if !ok {
		return
	}

	page, err := h.orders.ListForOwner(r.Context(), requester.ID, query)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeOrderPage(w, page)
}

func (h *OrderHandlers) listAllOrders(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}
	if !requester.IsAdmin() {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_authorized", "listing all orders requires the admin role", http.StatusForbidden))
		return
	}

	query, ok := listQueryFromRequest(w, r)
	if !ok {
		return
	}

	page, err := h.orders.ListAll(r.Context(), query)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeOrderPage(w, page)
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	order, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "orderID"), requester)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   orderPayloadFrom(order),
	})
}

func (h *OrderHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var payload updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), payload.Status, requester)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   orderPayloadFrom(order),
	})
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "orderID"), requester); err != nil {
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "order deleted",
	})
}

func listQueryFromRequest(w http.ResponseWriter, r *http.Request) (services.OrderListQuery, bool) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_pagination", "page and limit must be positive integers", http.StatusBadRequest))
		return services.OrderListQuery{}, false
	}
	return services.OrderListQuery{
		Status: r.URL.Query().Get("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}, true
}

func writeOrderPage(w http.ResponseWriter, page domain.Page[domain.Order]) {
	items := make([]orderPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, orderPayloadFrom(order))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"items":       items,
		"total":       page.Total,
		"pageCount":   page.PageCount,
		"currentPage": page.CurrentPage,
	})
}

func requesterFromContext(r *http.Request) (services.Requester, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.UID == "" {
		return services.Requester{}, false
	}
	return services.Requester{ID: identity.UID, Role: identity.Role}, true
}

func writeUnauthenticated(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("not_authorized", "you do not have access to this order", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", "order was modified concurrently, retry the request", http.StatusConflict))
	default:
		requestctx.Logger(ctx).Error("order request failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "something went wrong", http.StatusInternalServerError))
	}
}

// orderPayload is the wire shape of an order.
type orderPayload struct {
	ID              string             `json:"id"`
	OrderNumber     string             `json:"orderNumber"`
	UserID          string             `json:"user"`
	Items           []orderItemPayload `json:"items"`
	TotalAmount     float64            `json:"totalAmount"`
	Status          string             `json:"status"`
	ShippingAddress addressPayload     `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	PaymentStatus   string             `json:"paymentStatus"`
	EcoMetrics      ecoPayload         `json:"ecoMetrics"`
	DeliveryMetrics deliveryPayload    `json:"deliveryMetrics"`
	Notes           string             `json:"notes,omitempty"`
	CreatedAt       string             `json:"createdAt"`
	UpdatedAt       string             `json:"updatedAt"`
}

type orderItemPayload struct {
	ProductRef string  `json:"product"`
	Name       string  `json:"name"`
	Image      string  `json:"image,omitempty"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Subtotal   float64 `json:"subtotal"`
}

type addressPayload struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type ecoPayload struct {
	CO2SavedKg    float64 `json:"co2SavedKg"`
	BatchDelivery bool    `json:"batchDelivery"`
}

type deliveryPayload struct {
	EstimatedArrival string `json:"estimatedArrival"`
	QualityScore     int    `json:"qualityScore"`
}

func orderPayloadFrom(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductRef: item.ProductRef,
			Name:       item.ProductName,
			Image:      item.Image,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Subtotal:   item.Subtotal,
		})
	}
	return orderPayload{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		ShippingAddress: addressPayload{
			Street:  order.ShippingAddress.Street,
			City:    order.ShippingAddress.City,
			State:   order.ShippingAddress.State,
			ZipCode: order.ShippingAddress.PostalCode,
			Country: order.ShippingAddress.Country,
		},
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		EcoMetrics: ecoPayload{
			CO2SavedKg:    order.Eco.CO2SavedKg,
			BatchDelivery: order.Eco.BatchDelivery,
		},
		DeliveryMetrics: deliveryPayload{
			EstimatedArrival: order.Delivery.EstimatedArrival.UTC().Format(time.RFC3339),
			QualityScore:     order.Delivery.QualityScore,
		},
		Notes:     order.Notes,
		CreatedAt: order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: order.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
