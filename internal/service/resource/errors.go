package resource

import "errors"

var (
	// ErrNotFound is returned when no resource entry has the given id.
	ErrNotFound = errors.New("resource not found")

	// ErrNoCapacity is returned by SelectBestResource when the tenant
	// has no healthy resource with outbound budget left today.
	ErrNoCapacity = errors.New("no resource with available capacity")

	// ErrUnknownOutcome is returned for an unrecognized send outcome.
	ErrUnknownOutcome = errors.New("unknown send outcome")
)
