package kpi

import (
	"fmt"

	"clinic-analytics/internal/plan"
)

// KPI is a tracked metric key.
type KPI string

const (
	KPIMargin          KPI = "margin"
	KPINoShowRate      KPI = "no_show_rate"
	KPIOccupancy       KPI = "occupancy"
	KPIFinancialImpact KPI = "financial_impact"
	KPIRevPASDrop      KPI = "revpas_drop"
)

// TrackedKPIs is the closed set of KPIs classified against tier tables.
func TrackedKPIs() []KPI {
	return []KPI{KPIMargin, KPINoShowRate, KPIOccupancy, KPIFinancialImpact, KPIRevPASDrop}
}

// Direction is the comparison a threshold rule applies.
type Direction string

const (
	GreaterThan Direction = "greater_than"
	LessThan    Direction = "less_than"
)

// ThresholdRule maps a KPI value onto P3/P2/P1 boundaries.
// Boundaries are strictly ordered P3 -> P2 -> P1 in the comparison direction.
type ThresholdRule struct {
	Direction Direction `yaml:"direction" json:"direction"`
	Target    float64   `yaml:"target" json:"target"`
	P3        float64   `yaml:"p3" json:"p3"`
	P2        float64   `yaml:"p2" json:"p2"`
	P1        float64   `yaml:"p1" json:"p1"`
}

// Validate checks direction and boundary ordering.
func (r ThresholdRule) Validate() error {
	switch r.Direction {
	case GreaterThan:
		if !(r.P3 < r.P2 && r.P2 < r.P1) {
			return fmt.Errorf("%w: greater_than boundaries must increase p3 < p2 < p1", ErrInvalidThresholds)
		}
	case LessThan:
		if !(r.P3 > r.P2 && r.P2 > r.P1) {
			return fmt.Errorf("%w: less_than boundaries must decrease p3 > p2 > p1", ErrInvalidThresholds)
		}
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidThresholds, r.Direction)
	}
	return nil
}

// TierTable holds one rule per tracked KPI.
type TierTable struct {
	Margin          ThresholdRule `yaml:"margin" json:"margin"`
	NoShowRate      ThresholdRule `yaml:"no_show_rate" json:"no_show_rate"`
	Occupancy       ThresholdRule `yaml:"occupancy" json:"occupancy"`
	FinancialImpact ThresholdRule `yaml:"financial_impact" json:"financial_impact"`
	RevPASDrop      ThresholdRule `yaml:"revpas_drop" json:"revpas_drop"`
}

// Rule returns the rule for a KPI key.
func (t TierTable) Rule(key KPI) (ThresholdRule, bool) {
	switch key {
	case KPIMargin:
		return t.Margin, true
	case KPINoShowRate:
		return t.NoShowRate, true
	case KPIOccupancy:
		return t.Occupancy, true
	case KPIFinancialImpact:
		return t.FinancialImpact, true
	case KPIRevPASDrop:
		return t.RevPASDrop, true
	default:
		return ThresholdRule{}, false
	}
}

func (t TierTable) validate() error {
	for _, key := range TrackedKPIs() {
		rule, _ := t.Rule(key)
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// Tables is the per-tier threshold configuration. It is built once at
// startup and shared by value; nothing mutates it afterwards.
type Tables struct {
	Essential  TierTable `yaml:"essential" json:"essential"`
	Pro        TierTable `yaml:"pro" json:"pro"`
	Enterprise TierTable `yaml:"enterprise" json:"enterprise"`
}

// For returns the table of a tier.
func (t Tables) For(tier plan.Tier) (TierTable, bool) {
	switch tier {
	case plan.TierEssential:
		return t.Essential, true
	case plan.TierPro:
		return t.Pro, true
	case plan.TierEnterprise:
		return t.Enterprise, true
	default:
		return TierTable{}, false
	}
}

// Validate checks every rule of every tier.
func (t Tables) Validate() error {
	for _, tier := range plan.Tiers() {
		table, _ := t.For(tier)
		if err := table.validate(); err != nil {
			return fmt.Errorf("%s.%w", tier, err)
		}
	}
	return nil
}

// DefaultTables returns the compiled-in threshold tables.
func DefaultTables() Tables {
	return Tables{
		Essential: TierTable{
			Margin:          ThresholdRule{Direction: LessThan, Target: 30, P3: 25, P2: 20, P1: 10},
			NoShowRate:      ThresholdRule{Direction: GreaterThan, Target: 5, P3: 8, P2: 12, P1: 15},
			Occupancy:       ThresholdRule{Direction: LessThan, Target: 80, P3: 70, P2: 60, P1: 50},
			FinancialImpact: ThresholdRule{Direction: GreaterThan, Target: 1000, P3: 2000, P2: 5000, P1: 10000},
			RevPASDrop:      ThresholdRule{Direction: GreaterThan, Target: 0, P3: 10, P2: 20, P1: 30},
		},
		Pro: TierTable{
			Margin:          ThresholdRule{Direction: LessThan, Target: 30, P3: 28, P2: 22, P1: 12},
			NoShowRate:      ThresholdRule{Direction: GreaterThan, Target: 5, P3: 6, P2: 10, P1: 14},
			Occupancy:       ThresholdRule{Direction: LessThan, Target: 85, P3: 75, P2: 65, P1: 55},
			FinancialImpact: ThresholdRule{Direction: GreaterThan, Target: 800, P3: 1500, P2: 4000, P1: 8000},
			RevPASDrop:      ThresholdRule{Direction: GreaterThan, Target: 0, P3: 8, P2: 15, P1: 25},
		},
		Enterprise: TierTable{
			Margin:          ThresholdRule{Direction: LessThan, Target: 35, P3: 30, P2: 25, P1: 15},
			NoShowRate:      ThresholdRule{Direction: GreaterThan, Target: 3, P3: 5, P2: 8, P1: 12},
			Occupancy:       ThresholdRule{Direction: LessThan, Target: 90, P3: 80, P2: 70, P1: 60},
			FinancialImpact: ThresholdRule{Direction: GreaterThan, Target: 500, P3: 1000, P2: 3000, P1: 5000},
			RevPASDrop:      ThresholdRule{Direction: GreaterThan, Target: 0, P3: 5, P2: 12, P1: 20},
		},
	}
}
