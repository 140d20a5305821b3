package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Entitlement and signup errors
	ErrForbiddenDomain  = errors.New("email domain is not allowed")
	ErrUnknownAction    = errors.New("unknown admin action")
	ErrConcurrentUpdate = errors.New("account was modified concurrently")
	ErrAccessExpired    = errors.New("access has expired")
)
