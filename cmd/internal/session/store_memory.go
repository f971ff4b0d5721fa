package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development mode and unit tests.
type MemoryStore struct {
	mu     sync.Mutex
	byHash map[string]Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]Session)}
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash[s.TokenHash] = s
	return nil
}

// FindByTokenHash implements Store.
func (m *MemoryStore) FindByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byHash[tokenHash]
	if !ok {
		return Session{}, ErrNotActive
	}
	return s, nil
}

// RevokeByTokenHash implements Store.
func (m *MemoryStore) RevokeByTokenHash(ctx context.Context, tokenHash string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byHash[tokenHash]
	if !ok || s.RevokedAt != nil {
		return nil
	}
	s.RevokedAt = &now
	m.byHash[tokenHash] = s
	return nil
}

// RevokeAllForUser implements Store.
func (m *MemoryStore) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for h, s := range m.byHash {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
			m.byHash[h] = s
		}
	}
	return nil
}
