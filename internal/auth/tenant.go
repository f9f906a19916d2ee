package auth

import (
	"context"
	"errors"

	"clinic-analytics/internal/plan"
)

// ErrMissingTenant indicates a request without a tenant scope.
var ErrMissingTenant = errors.New("auth: missing tenant")

// Tenant is the explicit tenant scope passed into every engine entry point.
type Tenant struct {
	ID   string
	Plan plan.Tier
}

// Validate checks the tenant has an id and a known plan.
func (t Tenant) Validate() error {
	if t.ID == "" {
		return ErrMissingTenant
	}
	if !t.Plan.Valid() {
		return plan.ErrInvalidTier
	}
	return nil
}

// TenantFromContext builds the tenant scope placed by the middleware.
func TenantFromContext(ctx context.Context) (Tenant, error) {
	tenant := Tenant{ID: TenantIDFromContext(ctx), Plan: PlanFromContext(ctx)}
	if err := tenant.Validate(); err != nil {
		return Tenant{}, err
	}
	return tenant, nil
}
