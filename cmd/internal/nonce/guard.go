// Package nonce implements replay protection for signed launch requests.
//
// A (timestamp, nonce) pair is accepted at most once per consumer. The
// decision is backed by an atomic, constraint-backed insert in the store:
// under concurrent requests with the same tuple, exactly one caller observes
// acceptance.
package nonce

import (
	"context"
	"errors"
	"log/slog"
)

// Sentinel kinds returned by Store implementations.
var (
	ErrDuplicate       = errors.New("duplicate")
	ErrUnknownConsumer = errors.New("unknown_consumer")
)

// Protocol bounds for nonce length.
const (
	MinNonceLen = 5
	MaxNonceLen = 50
)

// Store persists replay records. Insert must be atomic: a duplicate
// (consumer, timestamp, nonce) tuple fails with ErrDuplicate without
// any check-then-act window, and an unknown consumer key fails with
// ErrUnknownConsumer without recording anything.
type Store interface {
	Insert(ctx context.Context, consumerKey string, timestamp int64, nonce string) error
}

// Guard answers "has this consumer used this (timestamp, nonce) before",
// recording the pair on first sight.
type Guard struct {
	store Store
	log   *slog.Logger
}

// NewGuard constructs a Guard over the given store.
func NewGuard(store Store, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{store: store, log: log}
}

// CheckAndRecord reports whether the (timestamp, nonce) pair is fresh for
// the consumer, persisting it when it is. Any rejection, including unknown
// consumer or store failure, yields false; this feeds the signing policy,
// which treats false as "not authenticated", never as a crash.
func (g *Guard) CheckAndRecord(ctx context.Context, consumerKey string, timestamp int64, nonce string) bool {
	if g == nil || g.store == nil {
		return false
	}
	if consumerKey == "" || nonce == "" || timestamp < 0 {
		return false
	}
	if len(nonce) < MinNonceLen || len(nonce) > MaxNonceLen {
		return false
	}

	err := g.store.Insert(ctx, consumerKey, timestamp, nonce)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrDuplicate):
		g.log.Warn("nonce.replay_detected", "consumer_key", consumerKey, "timestamp", timestamp)
		return false
	case errors.Is(err, ErrUnknownConsumer):
		g.log.Debug("nonce.unknown_consumer", "consumer_key", consumerKey)
		return false
	default:
		g.log.Error("nonce.store.fail", "err", err)
		return false
	}
}
