package facts

import (
	"fmt"
	"strings"
	"time"
)

// Status is the resolution of an operational event.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusNoShow    Status = "no-show"
)

// Valid returns true when the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCanceled, StatusNoShow:
		return true
	default:
		return false
	}
}

// Fact is one immutable appointment or transaction record.
type Fact struct {
	ID              int64     `json:"id"`
	TenantID        string    `json:"tenant_id"`
	OccurredAt      time.Time `json:"occurred_at"`
	Channel         string    `json:"channel"`
	Professional    string    `json:"professional"`
	Procedure       string    `json:"procedure"`
	Unit            string    `json:"unit"`
	Status          Status    `json:"status"`
	Entries         float64   `json:"entries"`
	Exits           float64   `json:"exits"`
	AvailableSlots  float64   `json:"available_slots"`
	EmptySlots      float64   `json:"empty_slots"`
	AvgTicket       float64   `json:"avg_ticket"`
	VariableCost    float64   `json:"variable_cost"`
	DurationMinutes float64   `json:"duration_minutes"`
	WaitMinutes     float64   `json:"wait_minutes"`
	Satisfaction    float64   `json:"satisfaction"`
	CRMRef          string    `json:"crm_ref,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate runs shape checks on a fact before it is appended.
func (f Fact) Validate() error {
	if f.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at required", ErrInvalidFact)
	}
	if !Status(strings.ToLower(string(f.Status))).Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFact, f.Status)
	}
	if f.Entries < 0 || f.Exits < 0 {
		return fmt.Errorf("%w: negative monetary value", ErrInvalidFact)
	}
	if f.AvailableSlots < 0 || f.EmptySlots < 0 {
		return fmt.Errorf("%w: negative slot count", ErrInvalidFact)
	}
	if f.AvgTicket < 0 {
		return fmt.Errorf("%w: negative average ticket", ErrInvalidFact)
	}
	return nil
}

// Normalize lowercases the status and converts timestamps to UTC.
func (f Fact) Normalize() Fact {
	f.Status = Status(strings.ToLower(string(f.Status)))
	f.OccurredAt = f.OccurredAt.UTC()
	if !f.CreatedAt.IsZero() {
		f.CreatedAt = f.CreatedAt.UTC()
	}
	return f
}
