package domain

import "errors"

// Sentinel errors for domain-level error discrimination. Services wrap these
// with %w so handlers can map them to HTTP status codes via errors.Is; any
// error not wrapping one of them is treated as an infrastructure failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)
