package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/feastly/api/internal/platform/auth"
)

func TestRouterHealthz(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
	if _, ok := payload["uptime"]; !ok {
		t.Fatalf("uptime missing from health payload: %v", payload)
	}
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["success"] != false {
		t.Fatalf("expected success=false envelope, got %v", payload)
	}
}

func TestRouterMountsGroupsUnderAPIPrefix(t *testing.T) {
	svc := &stubOrderService{}
	catalog := &stubCatalogService{}

	router := NewRouter(
		WithOrderRoutes(NewOrderHandlers(svc).Routes),
		WithMenuRoutes(NewMenuHandlers(catalog).Routes),
	)

	menuRec := httptest.NewRecorder()
	router.ServeHTTP(menuRec, httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil))
	if menuRec.Code != http.StatusOK {
		t.Fatalf("menu route: expected 200, got %d", menuRec.Code)
	}

	ordersRec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/orders/my-orders", nil), "user-a", "user")
	router.ServeHTTP(ordersRec, req)
	if ordersRec.Code != http.StatusOK {
		t.Fatalf("orders route: expected 200, got %d: %s", ordersRec.Code, ordersRec.Body.String())
	}
}

func TestRouterOrderMiddlewaresApplyToOrdersOnly(t *testing.T) {
	var ordersSeen bool
	marker := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ordersSeen = true
			next.ServeHTTP(w, r)
		})
	}

	router := NewRouter(
		WithOrderMiddlewares(marker),
		WithOrderRoutes(func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		}),
		WithMenuRoutes(NewMenuHandlers(&stubCatalogService{}).Routes),
	)

	menuRec := httptest.NewRecorder()
	router.ServeHTTP(menuRec, httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil))
	if ordersSeen {
		t.Fatalf("order middleware ran for a menu request")
	}

	ordersRec := httptest.NewRecorder()
	router.ServeHTTP(ordersRec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if !ordersSeen {
		t.Fatalf("order middleware did not run for an orders request")
	}
	if ordersRec.Code != http.StatusNoContent {
		t.Fatalf("orders route: expected 204, got %d", ordersRec.Code)
	}
}

func TestRouterAuthMiddlewareGuardsOrders(t *testing.T) {
	verifier := authStubVerifier{identity: &auth.Identity{UID: "user-a", Role: auth.RoleUser}}
	authn := auth.NewAuthenticator(verifier)

	router := NewRouter(
		WithOrderMiddlewares(authn.Require()),
		WithOrderRoutes(NewOrderHandlers(&stubOrderService{}).Routes),
	)

	anon := httptest.NewRecorder()
	router.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/api/v1/orders/my-orders", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", anon.Code)
	}

	authedReq := httptest.NewRequest(http.MethodGet, "/api/v1/orders/my-orders", nil)
	authedReq.Header.Set("Authorization", "Bearer token")
	ok := httptest.NewRecorder()
	router.ServeHTTP(ok, authedReq)
	if ok.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", ok.Code, ok.Body.String())
	}
}

type authStubVerifier struct {
	identity *auth.Identity
}

func (s authStubVerifier) Verify(_ context.Context, _ string) (*auth.Identity, error) {
	return s.identity, nil
}
