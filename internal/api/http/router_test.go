package apihttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"clinic-analytics/internal/auth"
)

type pingHandler struct{}

func (pingHandler) Register(r chi.Router) {
	r.Get("/api/v1/dashboard/snapshot", func(w http.ResponseWriter, r *http.Request) {
		tenant, err := auth.TenantFromContext(r.Context())
		if err != nil {
			http.Error(w, "no tenant", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(tenant.ID + ":" + string(tenant.Plan)))
	})
}

func newTestRouter() http.Handler {
	return NewRouter(RouterConfig{
		JWTSecret:   []byte("secret"),
		CORSOrigins: []string{"https://app.example"},
		Handlers:    []Registrar{pingHandler{}},
	})
}

func signedToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		TenantID: "tenant-a",
		Role:     "viewer",
		Plan:     "pro",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestRouter_HealthzIsPublic(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("unexpected healthz %d %q", resp.Code, resp.Body.String())
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/snapshot", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRouter_TenantFromToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	resp := httptest.NewRecorder()
	newTestRouter().ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || resp.Body.String() != "tenant-a:pro" {
		t.Fatalf("unexpected response %d %q", resp.Code, resp.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard/snapshot", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp := httptest.NewRecorder()
	newTestRouter().ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
}
