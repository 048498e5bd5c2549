package services

import "errors"

// Sentinel errors shared across services. Handlers map these onto HTTP
// status codes; everything else surfaces as a 500.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrDuplicate           = errors.New("already exists")
	ErrLimitExceeded       = errors.New("plan limit exceeded")
	ErrConcurrencyConflict = errors.New("concurrent modification, retry")
)
