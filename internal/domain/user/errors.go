package user

import "errors"

var (
	ErrInvalidToken            = errors.New("invalid or missing access token")
	ErrBusinessIDRequired      = errors.New("business ID is required")
	ErrUserIDRequired          = errors.New("user ID is required")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
