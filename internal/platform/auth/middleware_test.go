package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubVerifier struct {
	identity *Identity
	err      error
	token    string
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	s.token = token
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func runAuth(t *testing.T, authn *Authenticator, header string, roles ...string) (*httptest.ResponseRecorder, *Identity) {
	t.Helper()

	var captured *Identity
	handler := authn.Require(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestRequireInjectsIdentity(t *testing.T) {
	verifier := &stubVerifier{identity: &Identity{UID: "user-1", Role: RoleUser}}
	authn := NewAuthenticator(verifier)

	rec, identity := runAuth(t, authn, "Bearer token-abc")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if verifier.token != "token-abc" {
		t.Fatalf("verifier received %q", verifier.token)
	}
	if identity == nil || identity.UID != "user-1" {
		t.Fatalf("identity not injected: %+v", identity)
	}
}

func TestRequireRejectsMissingHeader(t *testing.T) {
	authn := NewAuthenticator(&stubVerifier{identity: &Identity{UID: "user-1"}})

	rec, _ := runAuth(t, authn, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload["success"] != false || payload["error"] != "unauthenticated" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestRequireRejectsMalformedHeader(t *testing.T) {
	authn := NewAuthenticator(&stubVerifier{identity: &Identity{UID: "user-1"}})

	for _, header := range []string{"token-abc", "Basic dXNlcg==", "Bearer "} {
		rec, _ := runAuth(t, authn, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestRequireExpiredToken(t *testing.T) {
	authn := NewAuthenticator(&stubVerifier{err: ErrTokenExpired})

	rec, _ := runAuth(t, authn, "Bearer stale")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload["error"] != "token_expired" {
		t.Fatalf("expected token_expired, got %v", payload["error"])
	}
}

func TestRequireInvalidToken(t *testing.T) {
	authn := NewAuthenticator(&stubVerifier{err: errors.New("signature mismatch")})

	rec, _ := runAuth(t, authn, "Bearer junk")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleGate(t *testing.T) {
	verifier := &stubVerifier{identity: &Identity{UID: "user-1", Role: RoleUser}}
	authn := NewAuthenticator(verifier)

	rec, _ := runAuth(t, authn, "Bearer token", RoleAdmin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	verifier.identity = &Identity{UID: "admin-1", Role: "Admin"}
	rec, _ = runAuth(t, authn, "Bearer token", RoleAdmin)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected role match to be case-insensitive, got %d", rec.Code)
	}
}

func TestRequireDefaultsMissingRoleToUser(t *testing.T) {
	verifier := &stubVerifier{identity: &Identity{UID: "user-1"}}
	authn := NewAuthenticator(verifier)

	rec, identity := runAuth(t, authn, "Bearer token")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if identity == nil || identity.Role != RoleUser {
		t.Fatalf("expected default user role, got %+v", identity)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"", "", false},
		{"abc", "", false},
		{"Bearer ", "", false},
	}
	for _, tc := range cases {
		got, ok := extractBearerToken(tc.header)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("header %q: got (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
