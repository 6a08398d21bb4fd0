package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leaveledger/internal/domain/auth"
)

func TestAuthMiddlewareSetsActor(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{ActorID: "a1", Role: auth.RoleAdmin, ScopeID: "s1"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			t.Fatal("expected actor in context")
		}
		if actor.ID != "a1" || actor.Role != auth.RoleAdmin {
			t.Fatalf("unexpected actor: %+v", actor)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetActor(r.Context()); ok {
			t.Fatal("did not expect actor in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	token, err := auth.GenerateToken("other-secret", auth.Claims{ActorID: "a1", Role: auth.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth("real-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetActor(r.Context()); ok {
			t.Fatal("forged token must not yield an actor")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestRequirePermission(t *testing.T) {
	perms := &auth.Permissions{}
	protected := RequirePermission(auth.PermLeaveAdjust, perms)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// anonymous
	req := httptest.NewRequest(http.MethodPost, "/leave/balances/adjust", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// staff lacks the adjust permission
	staffReq := withActor(t, "secret", auth.Claims{ActorID: "a2", Role: auth.RoleStaff, MemberID: "m1"},
		httptest.NewRequest(http.MethodPost, "/leave/balances/adjust", nil))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, staffReq)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	// admin passes
	adminReq := withActor(t, "secret", auth.Claims{ActorID: "a1", Role: auth.RoleAdmin},
		httptest.NewRequest(http.MethodPost, "/leave/balances/adjust", nil))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, adminReq)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func withActor(t *testing.T, secret string, claims auth.Claims, req *http.Request) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var out *http.Request
	Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out = r
	})).ServeHTTP(httptest.NewRecorder(), req)
	return out
}
