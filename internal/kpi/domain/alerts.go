package kpi

import (
	"fmt"
	"sort"
	"time"

	"clinic-analytics/internal/plan"
)

// MetricDeviation is the metric key of the synthetic monitoring alert.
const MetricDeviation = "deviation_monitoring"

// Alert is one prioritized finding derived from a snapshot.
type Alert struct {
	Severity        Priority           `json:"severity"`
	MetricKey       string             `json:"metric_key"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	FinancialImpact float64            `json:"financial_impact"`
	TriggeredAt     time.Time          `json:"triggered_at"`
	TierSeverity    Priority           `json:"tier_severity,omitempty"`
	Context         map[string]float64 `json:"context"`
}

// CriticalLimits are the absolute enterprise thresholds that always raise P1.
type CriticalLimits struct {
	MarginTarget      float64
	MarginP1          float64
	NoShowP1          float64
	FinancialImpactP1 float64
	RevPASDropP1      float64
}

// MonitoringBands are the softer P2/P3 bands behind the synthetic alert.
type MonitoringBands struct {
	MarginP2, MarginP3                   float64
	NoShowP2, NoShowP3                   float64
	FinancialImpactP2, FinancialImpactP3 float64
	RevPASDropP2, RevPASDropP3           float64
}

// EnterpriseCriticalLimits returns the fixed critical limits.
func EnterpriseCriticalLimits() CriticalLimits {
	return CriticalLimits{
		MarginTarget:      35,
		MarginP1:          15,
		NoShowP1:          12,
		FinancialImpactP1: 5000,
		RevPASDropP1:      20,
	}
}

// DefaultMonitoringBands returns the monitoring bands.
func DefaultMonitoringBands() MonitoringBands {
	return MonitoringBands{
		MarginP2: 25, MarginP3: 30,
		NoShowP2: 8, NoShowP3: 5,
		FinancialImpactP2: 3000, FinancialImpactP3: 1000,
		RevPASDropP2: 10, RevPASDropP3: 5,
	}
}

// AlertRule inspects a snapshot and optionally produces an alert.
type AlertRule struct {
	KPI      KPI
	Evaluate func(Snapshot) (Alert, bool)
}

// CriticalRules builds the ordered hard P1 rule list.
func CriticalRules(limits CriticalLimits) []AlertRule {
	return []AlertRule{
		{KPI: KPIMargin, Evaluate: func(s Snapshot) (Alert, bool) {
			if s.MarginPct >= limits.MarginP1 {
				return Alert{}, false
			}
			return Alert{
				Severity:        PriorityP1,
				MetricKey:       string(KPIMargin),
				Title:           "Margem líquida crítica",
				Description:     fmt.Sprintf("Margem de %.1f%% abaixo do limite de %.1f%%", s.MarginPct, limits.MarginP1),
				FinancialImpact: nonNegative(s.Revenue * (limits.MarginTarget - s.MarginPct) / 100),
			}, true
		}},
		{KPI: KPINoShowRate, Evaluate: func(s Snapshot) (Alert, bool) {
			if s.NoShowRatePct <= limits.NoShowP1 {
				return Alert{}, false
			}
			return Alert{
				Severity:        PriorityP1,
				MetricKey:       string(KPINoShowRate),
				Title:           "Taxa de no-show crítica",
				Description:     fmt.Sprintf("No-show de %.1f%% acima do limite de %.1f%%", s.NoShowRatePct, limits.NoShowP1),
				FinancialImpact: nonNegative(float64(s.NoShowCount) * s.AvgTicket),
			}, true
		}},
		{KPI: KPIFinancialImpact, Evaluate: func(s Snapshot) (Alert, bool) {
			if s.FinancialImpact <= limits.FinancialImpactP1 {
				return Alert{}, false
			}
			return Alert{
				Severity:        PriorityP1,
				MetricKey:       string(KPIFinancialImpact),
				Title:           "Impacto financeiro crítico",
				Description:     fmt.Sprintf("%.0f horários ociosos somam %.2f em receita perdida", s.IdleSlots, s.FinancialImpact),
				FinancialImpact: nonNegative(s.FinancialImpact),
			}, true
		}},
		{KPI: KPIRevPASDrop, Evaluate: func(s Snapshot) (Alert, bool) {
			if s.RevPASDropPct <= limits.RevPASDropP1 {
				return Alert{}, false
			}
			return Alert{
				Severity:        PriorityP1,
				MetricKey:       string(KPIRevPASDrop),
				Title:           "Queda de RevPAS crítica",
				Description:     fmt.Sprintf("RevPAS caiu %.1f%% (%.2f -> %.2f)", s.RevPASDropPct, s.RevPASPrevious, s.RevPASCurrent),
				FinancialImpact: nonNegative((s.RevPASPrevious - s.RevPASCurrent) * s.CurrentWindowSlots),
			}, true
		}},
	}
}

// Band returns the highest monitoring severity any metric falls into.
func (b MonitoringBands) Band(s Snapshot) Priority {
	severity := PriorityNone
	severity = severity.Higher(lowerBand(s.MarginPct, b.MarginP2, b.MarginP3))
	severity = severity.Higher(upperBand(s.NoShowRatePct, b.NoShowP2, b.NoShowP3))
	severity = severity.Higher(upperBand(s.FinancialImpact, b.FinancialImpactP2, b.FinancialImpactP3))
	severity = severity.Higher(upperBand(s.RevPASDropPct, b.RevPASDropP2, b.RevPASDropP3))
	return severity
}

// AlertGenerator turns snapshots into ordered alerts.
type AlertGenerator struct {
	classifier *Classifier
	critical   []AlertRule
	bands      MonitoringBands
}

// NewAlertGenerator constructs a generator with the fixed critical limits and monitoring bands.
func NewAlertGenerator(classifier *Classifier) *AlertGenerator {
	return &AlertGenerator{
		classifier: classifier,
		critical:   CriticalRules(EnterpriseCriticalLimits()),
		bands:      DefaultMonitoringBands(),
	}
}

// Generate evaluates the critical rules in order; when none fires, a single
// monitoring alert carries the highest soft band found. Empty snapshots never alert.
// The result is sorted by severity, then financial impact descending.
func (g *AlertGenerator) Generate(snap Snapshot, tier plan.Tier, at time.Time) ([]Alert, error) {
	if snap.Empty() {
		return []Alert{}, nil
	}
	tierSeverity, err := g.classifier.ClassifySnapshot(snap, tier)
	if err != nil {
		return nil, err
	}
	alerts := make([]Alert, 0, len(g.critical))
	for _, rule := range g.critical {
		alert, ok := rule.Evaluate(snap)
		if !ok {
			continue
		}
		alert.TriggeredAt = at.UTC()
		alert.TierSeverity = tierSeverity[rule.KPI]
		alert.Context = snapshotContext(snap)
		alerts = append(alerts, alert)
	}

	if len(alerts) == 0 {
		if severity := g.bands.Band(snap); severity != PriorityNone {
			highestTier := PriorityNone
			for _, key := range TrackedKPIs() {
				highestTier = highestTier.Higher(tierSeverity[key])
			}
			alerts = append(alerts, Alert{
				Severity:        severity,
				MetricKey:       MetricDeviation,
				Title:           "Desvio em monitoramento",
				Description:     "Indicadores fora da meta sem atingir nível crítico",
				FinancialImpact: nonNegative(snap.FinancialImpact),
				TriggeredAt:     at.UTC(),
				TierSeverity:    highestTier,
				Context:         snapshotContext(snap),
			})
		}
	}

	SortAlerts(alerts)
	return alerts, nil
}

// SortAlerts orders alerts by severity (P1 first), then financial impact descending.
// Ties keep rule order.
func SortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alerts[i].Severity.Rank(), alerts[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return alerts[i].FinancialImpact > alerts[j].FinancialImpact
	})
}

func snapshotContext(s Snapshot) map[string]float64 {
	return map[string]float64{
		"margin_pct":       s.MarginPct,
		"no_show_rate_pct": s.NoShowRatePct,
		"occupancy_pct":    s.OccupancyPct,
		"financial_impact": s.FinancialImpact,
		"revpas_current":   s.RevPASCurrent,
		"revpas_previous":  s.RevPASPrevious,
		"revpas_drop_pct":  s.RevPASDropPct,
		"idle_slots":       s.IdleSlots,
		"avg_ticket":       s.AvgTicket,
	}
}

func upperBand(value, p2, p3 float64) Priority {
	switch {
	case value > p2:
		return PriorityP2
	case value > p3:
		return PriorityP3
	default:
		return PriorityNone
	}
}

func lowerBand(value, p2, p3 float64) Priority {
	switch {
	case value < p2:
		return PriorityP2
	case value < p3:
		return PriorityP3
	default:
		return PriorityNone
	}
}

func nonNegative(value float64) float64 {
	value = finite(value)
	if value < 0 {
		return 0
	}
	return value
}
