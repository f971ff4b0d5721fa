package nonce

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory replay record store for development mode and
// unit tests. The mutex stands in for the database's unique index: check and
// record happen under one critical section.
type MemoryStore struct {
	mu        sync.Mutex
	consumers map[string]struct{}
	seen      map[string]struct{}
}

// NewMemoryStore returns an empty MemoryStore. Consumer keys must be
// registered via AddConsumer before records can be inserted for them.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		consumers: make(map[string]struct{}),
		seen:      make(map[string]struct{}),
	}
}

// AddConsumer registers a known consumer key.
func (m *MemoryStore) AddConsumer(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumers[key] = struct{}{}
}

// Insert implements Store.
func (m *MemoryStore) Insert(ctx context.Context, consumerKey string, timestamp int64, nonce string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.consumers[consumerKey]; !ok {
		return ErrUnknownConsumer
	}

	k := fmt.Sprintf("%s\x00%d\x00%s", consumerKey, timestamp, nonce)
	if _, ok := m.seen[k]; ok {
		return ErrDuplicate
	}
	m.seen[k] = struct{}{}
	return nil
}

// Len reports the number of stored records (test helper).
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
