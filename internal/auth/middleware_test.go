package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clinic-analytics/internal/plan"
)

func TestAuthMiddleware_NoToken(t *testing.T) {
	handler := wrapOK(t, []byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rca", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerForbiddenRCACreate(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "tenant-a", "viewer", "pro")
	handler := wrapOK(t, secret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rca", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerForbiddenFactIngest(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "tenant-a", "viewer", "essential")
	handler := wrapOK(t, secret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/facts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_InvalidPlanRejected(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "tenant-a", "admin", "platinum")
	handler := wrapOK(t, secret)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_TenantInContext(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "tenant-a", "operator", "enterprise")
	var got Tenant
	handler := NewMiddleware(secret, NewDefaultPolicy([]string{"/healthz"}, nil)).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := TenantFromContext(r.Context())
		if err != nil {
			t.Errorf("tenant from context: %v", err)
		}
		got = tenant
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/rca/7", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got.ID != "tenant-a" || got.Plan != plan.TierEnterprise {
		t.Fatalf("unexpected tenant %+v", got)
	}
}

func TestAuthMiddleware_ExemptHealth(t *testing.T) {
	handler := NewMiddleware([]byte("s"), NewDefaultPolicy([]string{"/healthz"}, nil)).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func wrapOK(t *testing.T, secret []byte) http.Handler {
	t.Helper()
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))
	return mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func mustToken(t *testing.T, secret []byte, tenantID, role, tier string) string {
	t.Helper()
	claims := Claims{
		TenantID: tenantID,
		Role:     role,
		Plan:     tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthMiddleware_RejectsClaimsWithoutTenant(t *testing.T) {
	orig := parseToken
	defer func() { parseToken = orig }()
	parseToken = func(string, []byte) (*Claims, error) {
		return &Claims{Role: "admin", Plan: "pro"}, nil
	}

	called := false
	handler := NewMiddleware([]byte("s"), NewDefaultPolicy(nil, nil)).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rca", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected 401 without reaching handler, got %d called=%v", resp.Code, called)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := bearerToken(req); got != want {
			t.Fatalf("header %q: got %q want %q", header, got, want)
		}
	}
}
