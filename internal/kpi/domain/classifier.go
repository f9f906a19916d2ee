package kpi

import "clinic-analytics/internal/plan"

// Classifier maps KPI values to priorities using the tier tables.
type Classifier struct {
	tables Tables
}

// NewClassifier constructs a classifier over immutable tables.
func NewClassifier(tables Tables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify returns the priority of value for key under tier. An unknown key
// or tier is a configuration error. Boundary ordering is not re-validated here.
func (c *Classifier) Classify(key KPI, value float64, tier plan.Tier) (Priority, error) {
	table, ok := c.tables.For(tier)
	if !ok {
		return PriorityNone, unknownKPI(key, tier)
	}
	rule, ok := table.Rule(key)
	if !ok {
		return PriorityNone, unknownKPI(key, tier)
	}
	return classify(rule, value), nil
}

// ClassifySnapshot classifies every tracked KPI of the snapshot.
func (c *Classifier) ClassifySnapshot(snap Snapshot, tier plan.Tier) (map[KPI]Priority, error) {
	result := make(map[KPI]Priority, len(TrackedKPIs()))
	for _, key := range TrackedKPIs() {
		value, err := snap.Value(key)
		if err != nil {
			return nil, err
		}
		priority, err := c.Classify(key, value, tier)
		if err != nil {
			return nil, err
		}
		result[key] = priority
	}
	return result, nil
}

func classify(rule ThresholdRule, value float64) Priority {
	breaches := func(boundary float64) bool {
		if rule.Direction == LessThan {
			return value < boundary
		}
		return value > boundary
	}
	switch {
	case breaches(rule.P1):
		return PriorityP1
	case breaches(rule.P2):
		return PriorityP2
	case breaches(rule.P3):
		return PriorityP3
	default:
		return PriorityNone
	}
}
