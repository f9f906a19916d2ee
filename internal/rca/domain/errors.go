package rca

import "errors"

var (
	// ErrValidation is returned when a create or update payload fails field constraints.
	ErrValidation = errors.New("rca: validation failed")
	// ErrInvalidStatus is returned for status values outside open, in_progress, done.
	ErrInvalidStatus = errors.New("rca: invalid status")
	// ErrNotFound is returned when the id does not exist for the requesting tenant.
	ErrNotFound = errors.New("rca: not found")
)
