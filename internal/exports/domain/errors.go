package exports

import "errors"

var (
	// ErrLimitReached is returned when the tenant used every export of the current window.
	ErrLimitReached = errors.New("exports: limit reached for current window")
	// ErrInvalidFormat is returned for report formats other than pdf and xlsx.
	ErrInvalidFormat = errors.New("exports: invalid format")
)
