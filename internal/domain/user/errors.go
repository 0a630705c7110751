package user

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserInactive           = errors.New("user account is deactivated")
	ErrInvalidRole            = errors.New("unknown user role")
	ErrImporterAccessRequired = errors.New("master, root or supervisor role required")
)
