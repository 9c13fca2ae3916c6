package errors

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserConflict    = errors.New("username or email already exists")
	ErrInvalidUserData = errors.New("invalid user data")
)
