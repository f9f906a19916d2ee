package kpi

import (
	"math"
	"sort"

	facts "clinic-analytics/internal/facts/domain"
)

// revpasWindowSize is the number of records in each RevPAS trend window.
const revpasWindowSize = 7

// Snapshot is the aggregate KPI view over a fact subset.
// Rate fields are percentages in [0, 100]. MarginPct is bounded above by 100
// but goes negative when exits exceed entries. Currency and RevPAS fields are unbounded.
type Snapshot struct {
	FactCount          int     `json:"fact_count"`
	NoShowCount        int     `json:"no_show_count"`
	Revenue            float64 `json:"revenue"`
	Expenses           float64 `json:"expenses"`
	MarginPct          float64 `json:"margin_pct"`
	NoShowRatePct      float64 `json:"no_show_rate_pct"`
	OccupancyPct       float64 `json:"occupancy_pct"`
	FinancialImpact    float64 `json:"financial_impact"`
	AvgTicket          float64 `json:"avg_ticket"`
	IdleSlots          float64 `json:"idle_slots"`
	AvailableSlots     float64 `json:"available_slots"`
	RevPASCurrent      float64 `json:"revpas_current"`
	RevPASPrevious     float64 `json:"revpas_previous"`
	RevPASDropPct      float64 `json:"revpas_drop_pct"`
	CurrentWindowSlots float64 `json:"current_window_slots"`
}

// Empty reports whether the snapshot was built from no facts.
func (s Snapshot) Empty() bool {
	return s.FactCount == 0
}

// Value returns the snapshot value tracked under a KPI key.
func (s Snapshot) Value(key KPI) (float64, error) {
	switch key {
	case KPIMargin:
		return s.MarginPct, nil
	case KPINoShowRate:
		return s.NoShowRatePct, nil
	case KPIOccupancy:
		return s.OccupancyPct, nil
	case KPIFinancialImpact:
		return s.FinancialImpact, nil
	case KPIRevPASDrop:
		return s.RevPASDropPct, nil
	default:
		return 0, unknownKPI(key, "")
	}
}

// BuildSnapshot aggregates facts into a Snapshot. Division by zero and
// non-finite intermediate values degrade to 0. An empty input yields the zero Snapshot.
func BuildSnapshot(list []facts.Fact) Snapshot {
	if len(list) == 0 {
		return Snapshot{}
	}

	var (
		snap        Snapshot
		ticketTotal float64
	)
	snap.FactCount = len(list)
	for _, fact := range list {
		snap.Revenue += finite(fact.Entries)
		snap.Expenses += finite(fact.Exits)
		snap.IdleSlots += finite(fact.EmptySlots)
		snap.AvailableSlots += finite(fact.AvailableSlots)
		ticketTotal += finite(fact.AvgTicket)
		if fact.Status == facts.StatusNoShow {
			snap.NoShowCount++
		}
	}

	snap.MarginPct = ratioPct(snap.Revenue-snap.Expenses, snap.Revenue)
	snap.NoShowRatePct = clampPct(ratioPct(float64(snap.NoShowCount), float64(snap.FactCount)))
	snap.OccupancyPct = clampPct(ratioPct(snap.AvailableSlots-snap.IdleSlots, snap.AvailableSlots))
	snap.AvgTicket = safeDiv(ticketTotal, float64(snap.FactCount))
	snap.FinancialImpact = finite(snap.IdleSlots * snap.AvgTicket)

	current, previous := revpasWindows(list)
	snap.RevPASCurrent, snap.CurrentWindowSlots = revpas(current)
	snap.RevPASPrevious, _ = revpas(previous)
	snap.RevPASDropPct = dropPct(snap.RevPASPrevious, snap.RevPASCurrent)
	return snap
}

// revpasWindows splits the time-ordered facts into the last revpasWindowSize
// records and the revpasWindowSize records before them.
func revpasWindows(list []facts.Fact) (current, previous []facts.Fact) {
	ordered := make([]facts.Fact, len(list))
	copy(ordered, list)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	split := len(ordered) - revpasWindowSize
	if split < 0 {
		split = 0
	}
	current = ordered[split:]
	prevStart := split - revpasWindowSize
	if prevStart < 0 {
		prevStart = 0
	}
	previous = ordered[prevStart:split]
	return current, previous
}

func revpas(window []facts.Fact) (value, slots float64) {
	var revenue float64
	for _, fact := range window {
		revenue += finite(fact.Entries)
		slots += finite(fact.AvailableSlots)
	}
	return safeDiv(revenue, slots), slots
}

func dropPct(previous, current float64) float64 {
	if previous <= 0 || !isFinite(previous) || !isFinite(current) {
		return 0
	}
	return finite((previous - current) / previous * 100)
}

func ratioPct(numerator, denominator float64) float64 {
	return safeDiv(numerator, denominator) * 100
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return finite(numerator / denominator)
}

func clampPct(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func finite(value float64) float64 {
	if !isFinite(value) {
		return 0
	}
	return value
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
