package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/feastly/api/internal/domain"
	"github.com/feastly/api/internal/platform/auth"
	"github.com/feastly/api/internal/services"
)

type stubOrderService struct {
	createCmd  services.CreateOrderCommand
	createResp domain.Order
	createErr  error

	getResp domain.Order
	getErr  error

	listOwnerID string
	listQuery   services.OrderListQuery
	listResp    domain.Page[domain.Order]
	listErr     error

	updateStatus string
	updateResp   domain.Order
	updateErr    error

	deletedID string
	deleteErr error
}

func (s *stubOrderService) Create(_ context.Context, cmd services.CreateOrderCommand) (domain.Order, error) {
	s.createCmd = cmd
	return s.createResp, s.createErr
}

func (s *stubOrderService) GetByID(_ context.Context, orderID string, _ services.Requester) (domain.Order, error) {
	return s.getResp, s.getErr
}

func (s *stubOrderService) ListForOwner(_ context.Context, ownerID string, query services.OrderListQuery) (domain.Page[domain.Order], error) {
	s.listOwnerID = ownerID
	s.listQuery = query
	return s.listResp, s.listErr
}

func (s *stubOrderService) ListAll(_ context.Context, query services.OrderListQuery) (domain.Page[domain.Order], error) {
	s.listQuery = query
	return s.listResp, s.listErr
}

func (s *stubOrderService) UpdateStatus(_ context.Context, orderID, newStatus string, _ services.Requester) (domain.Order, error) {
	s.updateStatus = newStatus
	return s.updateResp, s.updateErr
}

func (s *stubOrderService) Delete(_ context.Context, orderID string, _ services.Requester) error {
	s.deletedID = orderID
	return s.deleteErr
}

func sampleOrder() domain.Order {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:          "ord_1",
		OrderNumber: "ORD-1740823200000-1",
		UserID:      "user-a",
		Items: []domain.OrderItem{
			{ProductRef: "item-1", ProductName: "Truffle Burger", Quantity: 2, Price: 15.99, Subtotal: 31.98},
		},
		TotalAmount:   31.98,
		Status:        domain.OrderStatusConfirmed,
		PaymentMethod: domain.PaymentMethodCreditCard,
		PaymentStatus: domain.PaymentStatusCompleted,
		Eco:           domain.EcoMetrics{CO2SavedKg: 0.84, BatchDelivery: true},
		Delivery:      domain.DeliveryMetrics{EstimatedArrival: now.Add(30 * time.Minute), QualityScore: 100},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func orderRouter(svc services.OrderService) chi.Router {
	r := chi.NewRouter()
	NewOrderHandlers(svc).Routes(r)
	return r
}

func authed(req *http.Request, uid, role string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: uid, Role: role}))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return payload
}

func TestCreateOrderHandler(t *testing.T) {
	svc := &stubOrderService{createResp: sampleOrder()}
	router := orderRouter(svc)

	body := `{
		"items":[{"productId":"item-1","name":"Truffle Burger","quantity":2,"price":15.99}],
		"shippingAddress":{"street":"1 Market St","city":"SF","state":"CA","zipCode":"94105","country":"US"},
		"paymentMethod":"credit_card",
		"totalAmount":31.98
	}`
	req := authed(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "user-a", "user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	if payload["success"] != true {
		t.Fatalf("expected success envelope, got %v", payload)
	}
	order, ok := payload["order"].(map[string]any)
	if !ok {
		t.Fatalf("missing order in payload: %v", payload)
	}
	if order["orderNumber"] != "ORD-1740823200000-1" {
		t.Fatalf("unexpected order number: %v", order["orderNumber"])
	}
	if svc.createCmd.OwnerID != "user-a" {
		t.Fatalf("owner not taken from identity: %q", svc.createCmd.OwnerID)
	}
	if len(svc.createCmd.Items) != 1 || svc.createCmd.Items[0].ProductRef != "item-1" {
		t.Fatalf("items not mapped: %+v", svc.createCmd.Items)
	}
	if svc.createCmd.ShippingAddress.PostalCode != "94105" {
		t.Fatalf("zipCode not mapped to postal code: %+v", svc.createCmd.ShippingAddress)
	}
}

func TestCreateOrderHandlerRejectsBadJSON(t *testing.T) {
	router := orderRouter(&stubOrderService{})

	req := authed(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")), "user-a", "user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrderHandlerUnauthenticated(t *testing.T) {
	router := orderRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", fmt.Errorf("%w: bad items", services.ErrOrderInvalidInput), http.StatusBadRequest, "invalid_request"},
		{"not found", fmt.Errorf("%w: gone", services.ErrOrderNotFound), http.StatusNotFound, "order_not_found"},
		{"forbidden", fmt.Errorf("%w: nope", services.ErrOrderForbidden), http.StatusForbidden, "not_authorized"},
		{"conflict", fmt.Errorf("%w: busy", services.ErrOrderConflict), http.StatusConflict, "order_conflict"},
		{"unknown", fmt.Errorf("database on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := orderRouter(&stubOrderService{getErr: tc.err})

			req := authed(httptest.NewRequest(http.MethodGet, "/ord_1", nil), "user-a", "user")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			payload := decodeBody(t, rec)
			if payload["success"] != false {
				t.Fatalf("error envelope must carry success=false: %v", payload)
			}
			if payload["error"] != tc.wantCode {
				t.Fatalf("expected code %q, got %v", tc.wantCode, payload["error"])
			}
		})
	}
}

func TestListMyOrdersHandler(t *testing.T) {
	svc := &stubOrderService{listResp: domain.Page[domain.Order]{
		Items:       []domain.Order{sampleOrder()},
		Total:       25,
		PageCount:   3,
		CurrentPage: 2,
	}}
	router := orderRouter(svc)

	req := authed(httptest.NewRequest(http.MethodGet, "/my-orders?page=2&limit=10&status=confirmed", nil), "user-a", "user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.listOwnerID != "user-a" {
		t.Fatalf("expected owner scope, got %q", svc.listOwnerID)
	}
	if svc.listQuery.Page != 2 || svc.listQuery.Limit != 10 || svc.listQuery.Status != "confirmed" {
		t.Fatalf("query not mapped: %+v", svc.listQuery)
	}

	payload := decodeBody(t, rec)
	if payload["total"] != float64(25) || payload["pageCount"] != float64(3) || payload["currentPage"] != float64(2) {
		t.Fatalf("unexpected pagination envelope: %v", payload)
	}
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected items: %v", payload["items"])
	}
}

func TestListMyOrdersHandlerRejectsBadPagination(t *testing.T) {
	router := orderRouter(&stubOrderService{})

	req := authed(httptest.NewRequest(http.MethodGet, "/my-orders?page=abc", nil), "user-a", "user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListAllOrdersAdminOnly(t *testing.T) {
	svc := &stubOrderService{listResp: domain.Page[domain.Order]{Items: nil, Total: 0, PageCount: 0, CurrentPage: 1}}
	router := orderRouter(svc)

	asUser := authed(httptest.NewRequest(http.MethodGet, "/", nil), "user-a", "user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	asAdmin := authed(httptest.NewRequest(http.MethodGet, "/", nil), "admin-1", "admin")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	updated := sampleOrder()
	updated.Status = domain.OrderStatusDelivered
	svc := &stubOrderService{updateResp: updated}
	router := orderRouter(svc)

	req := authed(httptest.NewRequest(http.MethodPut, "/ord_1/status", strings.NewReader(`{"status":"delivered"}`)), "user-a", "user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updateStatus != "delivered" {
		t.Fatalf("status not forwarded: %q", svc.updateStatus)
	}
	payload := decodeBody(t, rec)
	order, _ := payload["order"].(map[string]any)
	if order == nil || order["status"] != "delivered" {
		t.Fatalf("unexpected order payload: %v", payload)
	}
}

func TestDeleteOrderHandler(t *testing.T) {
	svc := &stubOrderService{}
	router := orderRouter(svc)

	req := authed(httptest.NewRequest(http.MethodDelete, "/ord_1", nil), "user-a", "user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.deletedID != "ord_1" {
		t.Fatalf("expected delete of ord_1, got %q", svc.deletedID)
	}
	payload := decodeBody(t, rec)
	if payload["success"] != true {
		t.Fatalf("expected success envelope, got %v", payload)
	}
}
