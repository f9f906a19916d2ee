package auth

import (
	"net/http"
	"strings"
)

// Middleware authenticates bearer tokens and enforces the route policy.
type Middleware struct {
	Secret []byte
	Policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy}
}

// parseToken is swapped in tests to feed claims ParseJWT would reject.
var parseToken = ParseJWT

// Wrap rejects unauthenticated requests with 401 and under-privileged ones
// with 403. Authenticated requests carry the tenant identity in their context.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, ok := m.Policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		id, err := m.authenticate(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !RoleAtLeast(id.role, required) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ctx := WithIdentity(r.Context(), id.tenant.ID, id.role, id.subject, id.tenant.Plan)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticate(r *http.Request) (identity, error) {
	claims, err := parseToken(bearerToken(r), m.Secret)
	if err != nil {
		return identity{}, err
	}
	tenant, err := claims.Tenant()
	if err != nil {
		return identity{}, err
	}
	role, ok := NormalizeRole(claims.Role)
	if !ok {
		return identity{}, ErrInvalidToken
	}
	return identity{tenant: tenant, role: role, subject: claims.Subject}, nil
}

func bearerToken(r *http.Request) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
