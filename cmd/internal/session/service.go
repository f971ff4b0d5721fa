package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"ltigate/cmd/identity/ids"
)

const (
	// CookieName carries the plain session token to the browser.
	CookieName = "ltigate_session"

	tokenBytes = 32

	defaultTTL = 8 * time.Hour
	maxTTL     = 7 * 24 * time.Hour
)

// Service issues and terminates launch sessions.
type Service struct {
	store Store
	ttl   time.Duration
}

// NewService constructs a Service. A non-positive ttl falls back to a safe
// default; oversized ttls are clamped.
func NewService(store Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if ttl > maxTTL {
		ttl = maxTTL
	}
	return &Service{store: store, ttl: ttl}
}

// Started is the result of starting a session: the plain token belongs in
// the cookie and must never be logged or persisted.
type Started struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// Start establishes a session bound to a user.
func (s *Service) Start(ctx context.Context, now time.Time, userID string) (Started, error) {
	if s == nil || s.store == nil {
		return Started{}, fmt.Errorf("session.Start: %w: nil service", ErrInvalidInput)
	}
	if strings.TrimSpace(userID) == "" {
		return Started{}, fmt.Errorf("session.Start: %w: missing user_id", ErrInvalidInput)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Started{}, err
	}

	plain, err := newOpaqueToken(tokenBytes)
	if err != nil {
		return Started{}, err
	}

	sess := Session{
		ID:        id,
		UserID:    userID,
		TokenHash: HashToken(plain),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return Started{}, err
	}

	return Started{SessionID: id, Token: plain, ExpiresAt: sess.ExpiresAt}, nil
}

// End terminates the session carried by a plain token. Unknown or already
// terminated tokens are a no-op, so End is safe to call unconditionally.
func (s *Service) End(ctx context.Context, now time.Time, token string) error {
	if s == nil || s.store == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return s.store.RevokeByTokenHash(ctx, HashToken(token), now)
}

// EndAll terminates every session of a user.
func (s *Service) EndAll(ctx context.Context, now time.Time, userID string) error {
	if s == nil || s.store == nil {
		return nil
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("session.EndAll: %w: missing user_id", ErrInvalidInput)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return s.store.RevokeAllForUser(ctx, userID, now)
}

// Validate resolves a plain token to its active session.
// Returns ErrNotActive for unknown, revoked, or expired tokens.
func (s *Service) Validate(ctx context.Context, now time.Time, token string) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrNotActive
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrNotActive
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	sess, err := s.store.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		return Session{}, ErrNotActive
	}
	if !sess.Active(now) {
		return Session{}, ErrNotActive
	}
	return sess, nil
}

// HashToken returns the hex SHA-256 of a plain session token.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

func newOpaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
