// internal/core/domain/errors.go
package domain

import "errors"

var (
	// ErrInvalidDateRange is returned when a report period cannot be resolved
	// from the caller's input.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidRecord marks a transaction record that fails validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrDataSourceUnavailable wraps every failed Transaction Store read.
	ErrDataSourceUnavailable = errors.New("data source unavailable")

	ErrNotFound = errors.New("not found")
)
