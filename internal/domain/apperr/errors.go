// Package apperr holds the sentinel errors shared by the settlement pipeline.
// Services wrap them with a human-readable reason; the HTTP layer maps them to status codes.
package apperr

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")
	ErrExternal     = errors.New("external dependency failed")
)
