package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in development mode and unit tests.
// It mirrors the Postgres store's contract, including create-or-fetch under
// concurrent provisioning (serialized by the mutex instead of a unique index).
type MemoryStore struct {
	mu         sync.Mutex
	byUsername map[string]User
	byID       map[string]User
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUsername: make(map[string]User),
		byID:       make(map[string]User),
	}
}

// ProvisionUser implements Store.
func (m *MemoryStore) ProvisionUser(ctx context.Context, in ProvisionInput) (User, bool, error) {
	const op = "identity.ProvisionUser"

	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}
	if strings.TrimSpace(in.Username) == "" {
		return User{}, false, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing username"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return User{}, false, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing email"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.byUsername[in.Username]; ok {
		return u, false, nil
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, false, err
	}

	u := User{
		ID:        id,
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
	}
	m.byUsername[u.Username] = u
	m.byID[u.ID] = u
	return u, true, nil
}

// GetUserByUsername implements Store.
func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.GetUserByUsername"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byUsername[username]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

// GetUserByID implements Store.
func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

// CreateOwner implements Store.
func (m *MemoryStore) CreateOwner(ctx context.Context, in CreateOwnerInput) (User, error) {
	const op = "identity.CreateOwner"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing username"}
	}
	email := NormalizeEmail(in.Email)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing email"}
	}

	hash, err := HashPassword(in.Password, DefaultArgon2idParams())
	if err != nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byUsername[username]; ok {
		return User{}, ConflictError{Op: op, Field: "username"}
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    now,
	}
	m.byUsername[u.Username] = u
	m.byID[u.ID] = u
	return u, nil
}

// Disable marks a user as disabled (test/admin helper).
func (m *MemoryStore) Disable(id string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return
	}
	u.DisabledAt = &now
	m.byID[id] = u
	m.byUsername[u.Username] = u
}
