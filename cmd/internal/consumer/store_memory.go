package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ltigate/cmd/identity/ids"
)

// MemoryStore is an in-memory Store for development mode and unit tests.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[string]Consumer
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[string]Consumer)}
}

// FindByKey implements Store.
func (m *MemoryStore) FindByKey(ctx context.Context, key string) (Consumer, error) {
	if err := ctx.Err(); err != nil {
		return Consumer{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.byKey[key]
	if !ok {
		return Consumer{}, fmt.Errorf("consumer.FindByKey: %w", ErrNotFound)
	}
	return c, nil
}

// ExistsByKey implements Store.
func (m *MemoryStore) ExistsByKey(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byKey[key]
	return ok, nil
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, in CreateInput) (Consumer, error) {
	const op = "consumer.Create"

	if err := ctx.Err(); err != nil {
		return Consumer{}, err
	}
	if err := ValidateCredential(in.Key); err != nil {
		return Consumer{}, fmt.Errorf("%s: key: %w", op, err)
	}
	if err := ValidateCredential(in.Secret); err != nil {
		return Consumer{}, fmt.Errorf("%s: secret: %w", op, err)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byKey[in.Key]; ok {
		return Consumer{}, fmt.Errorf("%s: %w: key already registered", op, ErrConflict)
	}
	for _, c := range m.byKey {
		if c.Secret == in.Secret {
			return Consumer{}, fmt.Errorf("%s: %w: secret already registered", op, ErrConflict)
		}
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Consumer{}, err
	}

	c := Consumer{
		ID:        id,
		Key:       in.Key,
		Secret:    in.Secret,
		OwnerID:   in.OwnerID,
		CreatedAt: now,
	}
	m.byKey[c.Key] = c
	return c, nil
}
