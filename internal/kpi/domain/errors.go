package kpi

import (
	"errors"
	"fmt"

	"clinic-analytics/internal/plan"
)

var (
	// ErrUnknownKPI is a configuration error: a KPI key without a threshold rule.
	ErrUnknownKPI = errors.New("kpi: unknown kpi key")
	// ErrInvalidThresholds is returned when a threshold override breaks boundary ordering.
	ErrInvalidThresholds = errors.New("kpi: invalid thresholds")
)

func unknownKPI(key KPI, tier plan.Tier) error {
	if tier == "" {
		return fmt.Errorf("%w: %q", ErrUnknownKPI, key)
	}
	return fmt.Errorf("%w: %q for tier %s", ErrUnknownKPI, key, tier)
}
