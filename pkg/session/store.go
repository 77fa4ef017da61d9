package session

import (
	"context"
	"time"
)

// Store persists sessions.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist and ErrExpired if it has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Update saves an existing session. The token may have changed since it was loaded.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session by its ID.
	Delete(ctx context.Context, id string) error

	// Touch updates LastActiveAt without rewriting the data.
	Touch(ctx context.Context, id string, lastActiveAt time.Time) error
}
