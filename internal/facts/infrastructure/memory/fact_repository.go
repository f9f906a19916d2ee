package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	facts "clinic-analytics/internal/facts/domain"
)

// FactRepository is an in-memory fact store for demo/testing.
type FactRepository struct {
	mu     sync.RWMutex
	nextID int64
	data   map[string][]facts.Fact
	clock  func() time.Time
}

// NewFactRepository constructs a repository.
func NewFactRepository() *FactRepository {
	return &FactRepository{
		data:  make(map[string][]facts.Fact),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// Append stores facts for a tenant.
func (r *FactRepository) Append(ctx context.Context, tenantID string, list []facts.Fact) error {
	_ = ctx
	if tenantID == "" {
		return facts.ErrEmptyTenant
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fact := range list {
		r.nextID++
		fact = fact.Normalize()
		fact.ID = r.nextID
		fact.TenantID = tenantID
		if fact.CreatedAt.IsZero() {
			fact.CreatedAt = r.clock()
		}
		r.data[tenantID] = append(r.data[tenantID], fact)
	}
	return nil
}

// ListByTenant returns facts in [from, to] ordered by occurred_at then id.
func (r *FactRepository) ListByTenant(ctx context.Context, tenantID string, from, to time.Time) ([]facts.Fact, error) {
	_ = ctx
	if tenantID == "" {
		return nil, facts.ErrEmptyTenant
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.data[tenantID]
	result := make([]facts.Fact, 0, len(stored))
	for _, fact := range stored {
		if fact.OccurredAt.Before(from) || fact.OccurredAt.After(to) {
			continue
		}
		result = append(result, fact)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})
	return result, nil
}
