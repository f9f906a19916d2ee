package facts

import "errors"

var (
	// ErrInvalidPeriod is returned when the period is not a known enum value.
	ErrInvalidPeriod = errors.New("facts: invalid period")
	// ErrInvalidDate is returned when an explicit bound is not YYYY-MM-DD or the range is inverted.
	ErrInvalidDate = errors.New("facts: invalid date")
	// ErrInvalidFact is returned when an ingested fact fails shape checks.
	ErrInvalidFact = errors.New("facts: invalid fact")
	// ErrEmptyTenant is returned when a store call has no tenant scope.
	ErrEmptyTenant = errors.New("facts: empty tenant id")
)
