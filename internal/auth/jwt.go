package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"clinic-analytics/internal/plan"
)

// Claims is the token payload issued to clinic staff.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Plan     string `json:"plan"`
	jwt.RegisteredClaims
}

// Tenant returns the tenant identity carried by the claims.
func (c *Claims) Tenant() (Tenant, error) {
	tier, err := plan.ParseTier(c.Plan)
	if err != nil {
		return Tenant{}, err
	}
	tenant := Tenant{ID: c.TenantID, Plan: tier}
	return tenant, tenant.Validate()
}

// ParseJWT verifies an HS256 token and its clinic claims.
// Every failure wraps ErrInvalidToken.
func ParseJWT(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.Tenant(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, ok := NormalizeRole(claims.Role); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
