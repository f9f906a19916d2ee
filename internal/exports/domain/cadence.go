package exports

import (
	"context"
	"fmt"
	"time"

	"clinic-analytics/internal/plan"
)

// Cadence is the recurring bucket that export limits apply to.
type Cadence string

const (
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// Policy is the export allowance of one tier.
type Policy struct {
	Cadence    Cadence `json:"cadence"`
	MaxExports int     `json:"max_exports"`
}

// Window is the cadence bucket containing a reference instant. End is exclusive.
type Window struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Key        string    `json:"key"`
	Cadence    Cadence   `json:"cadence"`
	MaxExports int       `json:"max_exports"`
}

// Policies holds one policy per tier.
type Policies struct {
	Essential  Policy
	Pro        Policy
	Enterprise Policy
}

// DefaultPolicies maps every tier to one export per calendar month.
func DefaultPolicies() Policies {
	monthly := Policy{Cadence: CadenceMonthly, MaxExports: 1}
	return Policies{Essential: monthly, Pro: monthly, Enterprise: monthly}
}

// For returns the policy of tier.
func (p Policies) For(tier plan.Tier) (Policy, bool) {
	switch tier {
	case plan.TierEssential:
		return p.Essential, true
	case plan.TierPro:
		return p.Pro, true
	case plan.TierEnterprise:
		return p.Enterprise, true
	default:
		return Policy{}, false
	}
}

// CadenceGate computes the current export window. It does not count exports.
type CadenceGate struct {
	policies Policies
}

// NewCadenceGate constructs a gate over the given policies.
func NewCadenceGate(policies Policies) *CadenceGate {
	return &CadenceGate{policies: policies}
}

// Window returns the window of tier containing at, in UTC.
func (g *CadenceGate) Window(tier plan.Tier, at time.Time) (Window, error) {
	policy, ok := g.policies.For(tier)
	if !ok {
		return Window{}, plan.ErrInvalidTier
	}
	switch policy.Cadence {
	case CadenceWeekly:
		return weeklyWindow(at, policy.MaxExports), nil
	case CadenceMonthly:
		return monthlyWindow(at, policy.MaxExports), nil
	default:
		return Window{}, fmt.Errorf("exports: unknown cadence %q for tier %s", policy.Cadence, tier)
	}
}

func monthlyWindow(at time.Time, max int) Window {
	at = at.UTC()
	start := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start:      start,
		End:        start.AddDate(0, 1, 0),
		Key:        fmt.Sprintf("m-%04d-%02d", start.Year(), int(start.Month())),
		Cadence:    CadenceMonthly,
		MaxExports: max,
	}
}

func weeklyWindow(at time.Time, max int) Window {
	at = at.UTC()
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	// Monday is day 0 of the ISO week.
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	year, week := start.ISOWeek()
	return Window{
		Start:      start,
		End:        start.AddDate(0, 0, 7),
		Key:        fmt.Sprintf("w-%04d-%02d", year, week),
		Cadence:    CadenceWeekly,
		MaxExports: max,
	}
}

// Counter tracks exports issued per tenant and window key.
type Counter interface {
	// Reserve increments the window counter and returns the new total.
	Reserve(ctx context.Context, tenantID string, window Window) (int64, error)
	// Release undoes one reservation.
	Release(ctx context.Context, tenantID string, window Window) error
	// Used returns the current total.
	Used(ctx context.Context, tenantID string, window Window) (int64, error)
}
