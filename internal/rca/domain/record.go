package rca

import (
	"context"
	"fmt"
	"strings"
	"time"

	kpi "clinic-analytics/internal/kpi/domain"
)

// MinTextLength is the minimum trimmed length of root cause and action plan text.
const MinTextLength = 3

// Status is the RCA lifecycle state. Any transition among the three is allowed.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.TrimSpace(value))
	switch status {
	case StatusOpen, StatusInProgress, StatusDone:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
}

// Record is a tracked remediation linked to an alert.
type Record struct {
	ID         int64        `json:"id"`
	TenantID   string       `json:"tenant_id"`
	AlertID    string       `json:"alert_id"`
	Severity   kpi.Priority `json:"severity"`
	Title      string       `json:"title"`
	RootCause  string       `json:"root_cause"`
	ActionPlan string       `json:"action_plan"`
	Owner      string       `json:"owner"`
	DueDate    time.Time    `json:"due_date"`
	Status     Status       `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// CreateInput carries the fields required to open a record.
type CreateInput struct {
	AlertID    string       `json:"alert_id"`
	Severity   kpi.Priority `json:"severity"`
	Title      string       `json:"title"`
	RootCause  string       `json:"root_cause"`
	ActionPlan string       `json:"action_plan"`
	Owner      string       `json:"owner"`
	DueDate    time.Time    `json:"due_date"`
}

// Validate checks the create payload. The alert id is free-form.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.AlertID) == "" {
		return fmt.Errorf("%w: alert_id required", ErrValidation)
	}
	if _, ok := kpi.ParsePriority(string(in.Severity)); !ok {
		return fmt.Errorf("%w: severity must be P1, P2 or P3", ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title required", ErrValidation)
	}
	if err := validateText("root_cause", in.RootCause); err != nil {
		return err
	}
	if err := validateText("action_plan", in.ActionPlan); err != nil {
		return err
	}
	if strings.TrimSpace(in.Owner) == "" {
		return fmt.Errorf("%w: owner required", ErrValidation)
	}
	if in.DueDate.IsZero() {
		return fmt.Errorf("%w: due_date required", ErrValidation)
	}
	return nil
}

// Patch is a partial update. Status is required, the rest optional.
type Patch struct {
	Status     Status     `json:"status"`
	RootCause  *string    `json:"root_cause,omitempty"`
	ActionPlan *string    `json:"action_plan,omitempty"`
	Owner      *string    `json:"owner,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// Validate checks the patch.
func (p Patch) Validate() error {
	_, err := p.Normalize()
	return err
}

// Normalize validates the patch and returns it with the canonical status.
// Only normalized patches may reach a repository.
func (p Patch) Normalize() (Patch, error) {
	status, err := ParseStatus(string(p.Status))
	if err != nil {
		return Patch{}, err
	}
	p.Status = status
	if p.RootCause != nil {
		if err := validateText("root_cause", *p.RootCause); err != nil {
			return Patch{}, err
		}
	}
	if p.ActionPlan != nil {
		if err := validateText("action_plan", *p.ActionPlan); err != nil {
			return Patch{}, err
		}
	}
	if p.Owner != nil && strings.TrimSpace(*p.Owner) == "" {
		return Patch{}, fmt.Errorf("%w: owner must not be empty", ErrValidation)
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return Patch{}, fmt.Errorf("%w: due_date must not be zero", ErrValidation)
	}
	return p, nil
}

// Apply returns the record with the patch fields set.
func (p Patch) Apply(record Record, at time.Time) Record {
	record.Status = p.Status
	if p.RootCause != nil {
		record.RootCause = *p.RootCause
	}
	if p.ActionPlan != nil {
		record.ActionPlan = *p.ActionPlan
	}
	if p.Owner != nil {
		record.Owner = *p.Owner
	}
	if p.DueDate != nil {
		record.DueDate = p.DueDate.UTC()
	}
	record.UpdatedAt = at
	return record
}

// ListFilter selects records by exact severity and/or status. Empty means all.
type ListFilter struct {
	Severity kpi.Priority
	Status   Status
}

// Matches reports whether the record passes the filter.
func (f ListFilter) Matches(record Record) bool {
	if f.Severity != kpi.PriorityNone && record.Severity != f.Severity {
		return false
	}
	if f.Status != "" && record.Status != f.Status {
		return false
	}
	return true
}

// Repository is the tenant-scoped RCA store. Every lookup is keyed by (tenant, id).
type Repository interface {
	Create(ctx context.Context, record Record) (Record, error)
	// Update applies the patch atomically and returns ErrNotFound when the id
	// does not belong to the tenant.
	Update(ctx context.Context, tenantID string, id int64, patch Patch, at time.Time) (Record, error)
	List(ctx context.Context, tenantID string, filter ListFilter) ([]Record, error)
}

func validateText(field, value string) error {
	if len([]rune(strings.TrimSpace(value))) < MinTextLength {
		return fmt.Errorf("%w: %s must have at least %d characters", ErrValidation, field, MinTextLength)
	}
	return nil
}
