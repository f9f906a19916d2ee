package kpi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"clinic-analytics/internal/plan"
)

// tablesOverride is the YAML document shape: tier -> kpi -> rule.
// Each listed rule replaces the compiled-in rule for that tier and KPI.
type tablesOverride map[string]map[string]ThresholdRule

// LoadTables returns DefaultTables merged with the overrides in path.
// An empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, err
	}
	return ParseTables(data)
}

// ParseTables merges a YAML override document over DefaultTables and validates the result.
func ParseTables(data []byte) (Tables, error) {
	tables := DefaultTables()
	var override tablesOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}
	for tierName, rules := range override {
		tier, err := plan.ParseTier(tierName)
		if err != nil {
			return Tables{}, fmt.Errorf("%w: tier %q", ErrInvalidThresholds, tierName)
		}
		table := tables.table(tier)
		for key, rule := range rules {
			if !table.set(KPI(key), rule) {
				return Tables{}, fmt.Errorf("%w: %w", ErrInvalidThresholds, unknownKPI(KPI(key), tier))
			}
		}
	}
	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

func (t *Tables) table(tier plan.Tier) *TierTable {
	switch tier {
	case plan.TierPro:
		return &t.Pro
	case plan.TierEnterprise:
		return &t.Enterprise
	default:
		return &t.Essential
	}
}

func (t *TierTable) set(key KPI, rule ThresholdRule) bool {
	switch key {
	case KPIMargin:
		t.Margin = rule
	case KPINoShowRate:
		t.NoShowRate = rule
	case KPIOccupancy:
		t.Occupancy = rule
	case KPIFinancialImpact:
		t.FinancialImpact = rule
	case KPIRevPASDrop:
		t.RevPASDrop = rule
	default:
		return false
	}
	return true
}
