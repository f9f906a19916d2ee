package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	kpi "clinic-analytics/internal/kpi/domain"
	rca "clinic-analytics/internal/rca/domain"
)

const selectColumns = `id, tenant_id, alert_id, severity, title, root_cause, action_plan, owner, due_date, status, created_at, updated_at`

// RCARepository persists RCA records in Postgres.
type RCARepository struct {
	db *sql.DB
}

// NewRCARepository constructs a repository.
func NewRCARepository(db *sql.DB) *RCARepository {
	return &RCARepository{db: db}
}

// Create inserts a record and returns it with the generated id.
func (r *RCARepository) Create(ctx context.Context, record rca.Record) (rca.Record, error) {
	if r == nil || r.db == nil {
		return rca.Record{}, errors.New("rca repo: nil db")
	}
	err := r.db.QueryRowContext(ctx, `
INSERT INTO rca_records (
	tenant_id, alert_id, severity, title, root_cause, action_plan, owner, due_date, status, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
RETURNING id`,
		record.TenantID, record.AlertID, string(record.Severity), record.Title, record.RootCause, record.ActionPlan,
		record.Owner, record.DueDate.UTC(), string(record.Status), record.CreatedAt.UTC(), record.UpdatedAt.UTC(),
	).Scan(&record.ID)
	if err != nil {
		return rca.Record{}, err
	}
	return record, nil
}

// Update applies the patch in one statement scoped by (tenant_id, id).
func (r *RCARepository) Update(ctx context.Context, tenantID string, id int64, patch rca.Patch, at time.Time) (rca.Record, error) {
	if r == nil || r.db == nil {
		return rca.Record{}, errors.New("rca repo: nil db")
	}
	var dueDate sql.NullTime
	if patch.DueDate != nil {
		dueDate = sql.NullTime{Time: patch.DueDate.UTC(), Valid: true}
	}
	row := r.db.QueryRowContext(ctx, `
UPDATE rca_records SET
	status = $3,
	root_cause = COALESCE($4, root_cause),
	action_plan = COALESCE($5, action_plan),
	owner = COALESCE($6, owner),
	due_date = COALESCE($7, due_date),
	updated_at = $8
WHERE tenant_id = $1 AND id = $2
RETURNING `+selectColumns,
		tenantID, id, string(patch.Status), nullable(patch.RootCause), nullable(patch.ActionPlan), nullable(patch.Owner),
		dueDate, at.UTC(),
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rca.Record{}, rca.ErrNotFound
	}
	return record, err
}

// List returns tenant records ordered by id.
func (r *RCARepository) List(ctx context.Context, tenantID string, filter rca.ListFilter) ([]rca.Record, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rca repo: nil db")
	}
	clauses := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if filter.Severity != kpi.PriorityNone {
		args = append(args, string(filter.Severity))
		clauses = append(clauses, "severity = $2")
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+selectColumns+`
FROM rca_records
WHERE `+strings.Join(clauses, " AND ")+`
ORDER BY id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]rca.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (rca.Record, error) {
	var (
		record   rca.Record
		severity string
		status   string
	)
	if err := row.Scan(
		&record.ID,
		&record.TenantID,
		&record.AlertID,
		&severity,
		&record.Title,
		&record.RootCause,
		&record.ActionPlan,
		&record.Owner,
		&record.DueDate,
		&status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return rca.Record{}, err
	}
	record.Severity = kpi.Priority(severity)
	record.Status = rca.Status(status)
	record.DueDate = record.DueDate.UTC()
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func nullable(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
