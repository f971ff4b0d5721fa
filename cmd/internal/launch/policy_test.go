package launch

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"ltigate/cmd/internal/consumer"
	"ltigate/cmd/internal/nonce"
)

func newTestPolicy(t *testing.T) (*Policy, *consumer.MemoryStore, *nonce.MemoryStore) {
	t.Helper()

	consumers := consumer.NewMemoryStore()
	nonces := nonce.NewMemoryStore()
	guard := nonce.NewGuard(nonces, slog.Default())
	return NewPolicy(consumers, guard, slog.Default()), consumers, nonces
}

func TestPolicy_ClientSecret(t *testing.T) {
	t.Parallel()

	p, consumers, _ := newTestPolicy(t)
	ctx := context.Background()

	c, err := consumers.Create(ctx, consumer.CreateInput{
		Key:    "consumerkeyABCDEF1234",
		Secret: "consumersecretABCDEF12",
		Now:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := p.ClientSecret(ctx, c.Key); got != c.Secret {
		t.Fatalf("wrong secret for registered key")
	}
	if got := p.ClientSecret(ctx, "unknownkey12345678901"); got != p.DummyClientSecret() {
		t.Fatalf("unknown key must yield the dummy secret, got %q", got)
	}
	if got := p.ClientSecret(ctx, ""); got != p.DummyClientSecret() {
		t.Fatalf("empty key must yield the dummy secret")
	}
}

func TestPolicy_ClientKeyExists(t *testing.T) {
	t.Parallel()

	p, consumers, _ := newTestPolicy(t)
	ctx := context.Background()

	if p.ClientKeyExists(ctx, "unknownkey12345678901") {
		t.Fatalf("unregistered key must not exist")
	}

	if _, err := consumers.Create(ctx, consumer.CreateInput{
		Key:    "consumerkeyABCDEF1234",
		Secret: "consumersecretABCDEF12",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !p.ClientKeyExists(ctx, "consumerkeyABCDEF1234") {
		t.Fatalf("registered key must exist")
	}
}

func TestPolicy_ValidateTimestampAndNonce(t *testing.T) {
	t.Parallel()

	p, _, nonces := newTestPolicy(t)
	ctx := context.Background()
	nonces.AddConsumer("consumerkeyABCDEF1234")

	if !p.ValidateTimestampAndNonce(ctx, "consumerkeyABCDEF1234", 1700000000, "nonce-1") {
		t.Fatalf("first use must be fresh")
	}
	if p.ValidateTimestampAndNonce(ctx, "consumerkeyABCDEF1234", 1700000000, "nonce-1") {
		t.Fatalf("replay must be rejected")
	}

	// Unknown consumers are rejected and leave no record behind.
	before := nonces.Len()
	if p.ValidateTimestampAndNonce(ctx, "unknownkey12345678901", 1700000000, "nonce-2") {
		t.Fatalf("unknown consumer must be rejected")
	}
	if nonces.Len() != before {
		t.Fatalf("unknown consumer must not record anything")
	}
}

func TestPolicy_FixedSurface(t *testing.T) {
	t.Parallel()

	p, _, _ := newTestPolicy(t)
	if p.TransportSecurityRequired() {
		t.Fatalf("transport security is delegated upstream")
	}
	min, max := p.NonceLength()
	if min != 5 || max != 50 {
		t.Fatalf("unexpected nonce bounds (%d,%d)", min, max)
	}
	if got := p.TimestampLifetime(); got != 600*time.Second {
		t.Fatalf("unexpected timestamp lifetime %v", got)
	}
	if p.DummyClientKey() == "" || p.DummyClientSecret() == "" {
		t.Fatalf("decoy credentials must be non-empty")
	}
}
