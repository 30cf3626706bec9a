package pool

import "errors"

// Sentinel errors for the pool service layer.
var (
	ErrNotFound     = errors.New("pool entry not found")
	ErrEmailMissing = errors.New("email is required")
)
