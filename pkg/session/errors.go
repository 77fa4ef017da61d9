package session

import "errors"

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned when a session has expired.
	ErrExpired = errors.New("session: expired")

	// ErrInvalidToken is returned when a session token is malformed.
	ErrInvalidToken = errors.New("session: invalid token")

	// ErrTypeMismatch is returned when a stored value cannot be decoded into the requested type.
	ErrTypeMismatch = errors.New("session: type mismatch")
)
