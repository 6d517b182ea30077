package services

import "errors"

// Client-facing failures. Handlers map these to HTTP status codes; any
// other error is treated as an internal fault.
var (
	ErrValidation            = errors.New("invalid request")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrIncorrectPassword     = errors.New("incorrect password")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrUserNotFound          = errors.New("user not found")
	ErrStudentNotFound       = errors.New("student not found")
	ErrNotificationFailed    = errors.New("failed to send email")
)
