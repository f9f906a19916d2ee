package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPolicyRequiredRole(t *testing.T) {
	policy := NewDefaultPolicy([]string{"/healthz"}, nil)
	cases := []struct {
		method string
		path   string
		want   Role
		ok     bool
	}{
		{http.MethodPost, "/api/v1/facts", RoleOperator, true},
		{http.MethodGet, "/api/v1/dashboard/snapshot", RoleViewer, true},
		{http.MethodPatch, "/api/v1/rca/12", RoleOperator, true},
		{http.MethodGet, "/api/v1/rca", RoleViewer, true},
		{http.MethodPost, "/api/v1/exports/report", RoleViewer, true},
		{http.MethodDelete, "/api/v1/unknown", RoleAdmin, true},
		{http.MethodPost, "/api/v1/factsheet", RoleAdmin, true},
		{http.MethodGet, "/static/app.js", "", false},
	}
	for _, tc := range cases {
		got, ok := policy.RequiredRole(httptest.NewRequest(tc.method, tc.path, nil))
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s %s: got %q ok=%v, want %q ok=%v", tc.method, tc.path, got, ok, tc.want, tc.ok)
		}
	}
	if !policy.IsExempt(httptest.NewRequest(http.MethodOptions, "/api/v1/rca", nil)) {
		t.Fatalf("expected preflight to be exempt")
	}
}

func TestParseJWT_RequiresExpiry(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{TenantID: "tenant-a", Role: "viewer", Plan: "pro"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(signed, secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseJWT_Expired(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		TenantID: "tenant-a",
		Role:     "viewer",
		Plan:     "pro",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(signed, secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestClaimsTenant(t *testing.T) {
	claims := &Claims{TenantID: "tenant-a", Plan: "enterprise"}
	tenant, err := claims.Tenant()
	if err != nil {
		t.Fatalf("tenant: %v", err)
	}
	if tenant.ID != "tenant-a" || tenant.Plan != "enterprise" {
		t.Fatalf("unexpected tenant %+v", tenant)
	}
	if _, err := (&Claims{Plan: "pro"}).Tenant(); !errors.Is(err, ErrMissingTenant) {
		t.Fatalf("expected ErrMissingTenant, got %v", err)
	}
}
