package services

import "errors"

// Service-level error taxonomy. Handlers map these onto HTTP statuses;
// none of them are retried.
var (
	ErrNotFound             = errors.New("not found")
	ErrUsernameExists       = errors.New("username already exists")
	ErrEmailExists          = errors.New("email already exists")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrInvalidProfileLink   = errors.New("invalid profile link")
)
