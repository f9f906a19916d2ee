package kpi

// Priority is an alert severity. The zero value means no alert.
type Priority string

const (
	PriorityNone Priority = ""
	PriorityP1   Priority = "P1"
	PriorityP2   Priority = "P2"
	PriorityP3   Priority = "P3"
)

// ParsePriority validates a severity string. PriorityNone is not accepted.
func ParsePriority(value string) (Priority, bool) {
	switch Priority(value) {
	case PriorityP1, PriorityP2, PriorityP3:
		return Priority(value), true
	default:
		return PriorityNone, false
	}
}

// Rank orders priorities with P1 first. PriorityNone ranks last.
func (p Priority) Rank() int {
	switch p {
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	default:
		return 4
	}
}

// Higher returns the more severe of p and other.
func (p Priority) Higher(other Priority) Priority {
	if other.Rank() < p.Rank() {
		return other
	}
	return p
}
