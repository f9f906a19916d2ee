package facts

import (
	"context"
	"time"
)

// Repository is the tenant-scoped append-only fact store.
type Repository interface {
	// Append stores facts for the tenant. Facts are never mutated afterwards.
	Append(ctx context.Context, tenantID string, facts []Fact) error
	// ListByTenant returns facts with occurred_at in [from, to], ordered by occurred_at then id.
	ListByTenant(ctx context.Context, tenantID string, from, to time.Time) ([]Fact, error)
}
