package auth

import "errors"

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrIdentityTaken     = errors.New("username or email already taken")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidPassword   = errors.New("current password does not match")
	ErrMissingSigningKey = errors.New("token signing key is not configured")
	ErrInvalidToken      = errors.New("invalid token")
)
