package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	rca "clinic-analytics/internal/rca/domain"
)

type key struct {
	tenantID string
	id       int64
}

// RCARepository is an in-memory RCA store for demo/testing.
type RCARepository struct {
	mu      sync.RWMutex
	nextID  int64
	records map[key]rca.Record
}

// NewRCARepository constructs a repository.
func NewRCARepository() *RCARepository {
	return &RCARepository{records: make(map[key]rca.Record)}
}

// Create stores the record and assigns the next id.
func (r *RCARepository) Create(ctx context.Context, record rca.Record) (rca.Record, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	record.ID = r.nextID
	r.records[key{tenantID: record.TenantID, id: record.ID}] = record
	return record, nil
}

// Update applies the patch under the write lock.
func (r *RCARepository) Update(ctx context.Context, tenantID string, id int64, patch rca.Patch, at time.Time) (rca.Record, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{tenantID: tenantID, id: id}
	record, ok := r.records[k]
	if !ok {
		return rca.Record{}, rca.ErrNotFound
	}
	record = patch.Apply(record, at)
	r.records[k] = record
	return record, nil
}

// List returns matching records ordered by id.
func (r *RCARepository) List(ctx context.Context, tenantID string, filter rca.ListFilter) ([]rca.Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]rca.Record, 0)
	for k, record := range r.records {
		if k.tenantID != tenantID || !filter.Matches(record) {
			continue
		}
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
