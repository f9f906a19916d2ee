package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	facts "clinic-analytics/internal/facts/domain"
)

// FactRepository is a Postgres append-only fact store.
type FactRepository struct {
	db *sql.DB
}

// NewFactRepository constructs a repository.
func NewFactRepository(db *sql.DB) *FactRepository {
	return &FactRepository{db: db}
}

// Append inserts facts for a tenant in one transaction.
func (r *FactRepository) Append(ctx context.Context, tenantID string, list []facts.Fact) error {
	if r == nil || r.db == nil {
		return errors.New("fact repo: nil db")
	}
	if tenantID == "" {
		return facts.ErrEmptyTenant
	}
	if len(list) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, fact := range list {
		fact = fact.Normalize()
		if fact.CreatedAt.IsZero() {
			fact.CreatedAt = now
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO facts (
	tenant_id, occurred_at, channel, professional, procedure, unit, status,
	entries, exits, available_slots, empty_slots, avg_ticket, variable_cost,
	duration_minutes, wait_minutes, satisfaction, crm_ref, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
)`, insertArgs(tenantID, fact)...)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListByTenant returns facts in [from, to] ordered by occurred_at then id.
func (r *FactRepository) ListByTenant(ctx context.Context, tenantID string, from, to time.Time) ([]facts.Fact, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("fact repo: nil db")
	}
	if tenantID == "" {
		return nil, facts.ErrEmptyTenant
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, occurred_at, channel, professional, procedure, unit, status,
	entries, exits, available_slots, empty_slots, avg_ticket, variable_cost,
	duration_minutes, wait_minutes, satisfaction, crm_ref, created_at
FROM facts
WHERE tenant_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
ORDER BY occurred_at ASC, id ASC`, tenantID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []facts.Fact
	for rows.Next() {
		var (
			fact   facts.Fact
			status string
			crmRef sql.NullString
		)
		if err := rows.Scan(
			&fact.ID,
			&fact.TenantID,
			&fact.OccurredAt,
			&fact.Channel,
			&fact.Professional,
			&fact.Procedure,
			&fact.Unit,
			&status,
			&fact.Entries,
			&fact.Exits,
			&fact.AvailableSlots,
			&fact.EmptySlots,
			&fact.AvgTicket,
			&fact.VariableCost,
			&fact.DurationMinutes,
			&fact.WaitMinutes,
			&fact.Satisfaction,
			&crmRef,
			&fact.CreatedAt,
		); err != nil {
			return nil, err
		}
		fact.Status = facts.Status(status)
		fact.OccurredAt = fact.OccurredAt.UTC()
		fact.CreatedAt = fact.CreatedAt.UTC()
		if crmRef.Valid {
			fact.CRMRef = crmRef.String
		}
		result = append(result, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// insertArgs binds a fact in column order. crm_ref is NOT NULL, so a missing
// reference is stored as "".
func insertArgs(tenantID string, fact facts.Fact) []any {
	return []any{
		tenantID, fact.OccurredAt, fact.Channel, fact.Professional, fact.Procedure, fact.Unit, string(fact.Status),
		fact.Entries, fact.Exits, fact.AvailableSlots, fact.EmptySlots, fact.AvgTicket, fact.VariableCost,
		fact.DurationMinutes, fact.WaitMinutes, fact.Satisfaction, fact.CRMRef, fact.CreatedAt,
	}
}
