// Package session implements server-side launch sessions.
//
// A session is an opaque random token handed to the browser in a cookie;
// only its SHA-256 hash is stored. Launch processing always terminates any
// pre-existing session before establishing a new identity, so one browser
// never carries two identities.
package session

import (
	"context"
	"errors"
	"time"
)

// Sentinel kinds.
var (
	ErrNotActive    = errors.New("not_active")
	ErrInvalidInput = errors.New("invalid_input")
)

// Session is a server-side session row. The plain token is never stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string

	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session is usable at the given instant.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// Store is the session persistence boundary.
type Store interface {
	Create(ctx context.Context, s Session) error

	// FindByTokenHash returns the session row regardless of activity;
	// callers decide with Session.Active.
	FindByTokenHash(ctx context.Context, tokenHash string) (Session, error)

	// RevokeByTokenHash revokes a session (idempotent; unknown hashes are a no-op).
	RevokeByTokenHash(ctx context.Context, tokenHash string, now time.Time) error

	// RevokeAllForUser revokes every active session of a user (idempotent).
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) error
}
