package allocation

import "errors"

// Sentinel errors for the allocation service layer.
var (
	ErrCountOutOfRange = errors.New("count must be between 1 and 1000")
	ErrNotFound        = errors.New("assignment not found")
	ErrNotActive       = errors.New("assignment is not active")
	ErrConverted       = errors.New("assignment is converted and cannot be released")
)
