package util

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidOTP      = errors.New("invalid or expired code")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrExportDisabled  = errors.New("export storage not configured")
)
