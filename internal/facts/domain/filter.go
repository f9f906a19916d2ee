package facts

import (
	"fmt"
	"strings"
	"time"
)

// Period selects a lookback window.
type Period string

const (
	Period7D     Period = "7d"
	Period30D    Period = "30d"
	Period90D    Period = "90d"
	Period12M    Period = "12m"
	PeriodCustom Period = "custom"
)

// DefaultPeriod is used when the filter carries no period.
const DefaultPeriod = Period30D

const (
	dateLayout = "2006-01-02"
	allValue   = "all"
)

// LookbackDays returns the fixed lookback for the period.
func (p Period) LookbackDays() (int, bool) {
	switch p {
	case Period7D:
		return 7, true
	case Period30D:
		return 30, true
	case Period90D:
		return 90, true
	case Period12M:
		return 365, true
	default:
		return 0, false
	}
}

// Filter narrows a tenant's facts to a window and exact dimensional matches.
type Filter struct {
	Period       Period `json:"period"`
	DateFrom     string `json:"date_from,omitempty"`
	DateTo       string `json:"date_to,omitempty"`
	Channel      string `json:"channel,omitempty"`
	Professional string `json:"professional,omitempty"`
	Procedure    string `json:"procedure,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Status       string `json:"status,omitempty"`
}

// Window is a resolved closed time range.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	// Defaulted is set when a custom period lacked bounds and the default lookback was used.
	Defaulted bool `json:"defaulted,omitempty"`
}

// Contains reports whether at falls inside the window.
func (w Window) Contains(at time.Time) bool {
	return !at.Before(w.From) && !at.After(w.To)
}

// ResolveWindow maps the filter's period onto absolute bounds relative to now.
// A custom period without both bounds falls back to the default lookback.
func ResolveWindow(filter Filter, now time.Time) (Window, error) {
	now = now.UTC()
	period := Period(strings.ToLower(strings.TrimSpace(string(filter.Period))))
	if period == "" {
		period = DefaultPeriod
	}
	if period == PeriodCustom {
		if strings.TrimSpace(filter.DateFrom) == "" || strings.TrimSpace(filter.DateTo) == "" {
			window := lookbackWindow(now, DefaultPeriod)
			window.Defaulted = true
			return window, nil
		}
		from, err := parseDate(filter.DateFrom)
		if err != nil {
			return Window{}, err
		}
		to, err := parseDate(filter.DateTo)
		if err != nil {
			return Window{}, err
		}
		if to.Before(from) {
			return Window{}, fmt.Errorf("%w: date_to before date_from", ErrInvalidDate)
		}
		// date_to is inclusive of the whole day.
		return Window{From: from, To: to.Add(24*time.Hour - time.Nanosecond)}, nil
	}
	if _, ok := period.LookbackDays(); !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, filter.Period)
	}
	return lookbackWindow(now, period), nil
}

// Matches reports whether the fact passes every dimensional filter.
func (f Filter) Matches(fact Fact) bool {
	return matchDimension(f.Channel, fact.Channel) &&
		matchDimension(f.Professional, fact.Professional) &&
		matchDimension(f.Procedure, fact.Procedure) &&
		matchDimension(f.Unit, fact.Unit) &&
		matchDimension(f.Status, string(fact.Status))
}

// Apply returns the facts inside the window that match the filter, preserving input order.
func Apply(all []Fact, filter Filter, window Window) []Fact {
	result := make([]Fact, 0, len(all))
	for _, fact := range all {
		if !window.Contains(fact.OccurredAt) {
			continue
		}
		if !filter.Matches(fact) {
			continue
		}
		result = append(result, fact)
	}
	return result
}

func lookbackWindow(now time.Time, period Period) Window {
	days, _ := period.LookbackDays()
	return Window{From: now.AddDate(0, 0, -days), To: now}
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, value)
	}
	return parsed.UTC(), nil
}

func matchDimension(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" || strings.EqualFold(want, allValue) {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}
