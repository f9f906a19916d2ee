package auth

import (
	"context"

	"clinic-analytics/internal/plan"
)

type identityKey struct{}

// identity is what the middleware learned from the bearer token.
type identity struct {
	tenant  Tenant
	role    Role
	subject string
}

// WithIdentity stores the caller identity in ctx.
func WithIdentity(ctx context.Context, tenantID string, role Role, subject string, tier plan.Tier) context.Context {
	return context.WithValue(ctx, identityKey{}, identity{
		tenant:  Tenant{ID: tenantID, Plan: tier},
		role:    role,
		subject: subject,
	})
}

func identityFrom(ctx context.Context) identity {
	if ctx == nil {
		return identity{}
	}
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

// TenantIDFromContext returns the tenant id, or "" outside an authenticated request.
func TenantIDFromContext(ctx context.Context) string {
	return identityFrom(ctx).tenant.ID
}

// RoleFromContext returns the caller role.
func RoleFromContext(ctx context.Context) Role {
	return identityFrom(ctx).role
}

// SubjectFromContext returns the token subject, usually the staff member id.
func SubjectFromContext(ctx context.Context) string {
	return identityFrom(ctx).subject
}

// PlanFromContext returns the tenant plan tier.
func PlanFromContext(ctx context.Context) plan.Tier {
	return identityFrom(ctx).tenant.Plan
}
