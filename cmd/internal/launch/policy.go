package launch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ltigate/cmd/internal/consumer"
	"ltigate/cmd/internal/nonce"
)

// Decoy credentials handed out on the unknown-consumer path. The decoy
// secret can never verify a signature, so unknown keys fail the same way
// a wrong signature does.
const (
	dummyClientKey    = "dummyclientkey000000"
	dummyClientSecret = "dummyclientsecret000"
)

// timestampLifetime bounds how far a launch timestamp may drift from the
// server clock before the request is rejected outright.
const timestampLifetime = 600 * time.Second

// Policy is the signing-validation policy over the consumer registry and
// the replay guard. Registry lookups never surface errors to the verifier:
// infrastructure failures degrade to rejection and are logged here.
type Policy struct {
	consumers consumer.Store
	guard     *nonce.Guard
	log       *slog.Logger
}

// NewPolicy constructs the launch signing policy.
func NewPolicy(consumers consumer.Store, guard *nonce.Guard, log *slog.Logger) *Policy {
	if log == nil {
		log = slog.Default()
	}
	return &Policy{consumers: consumers, guard: guard, log: log}
}

// TransportSecurityRequired reports false: TLS termination is delegated to
// the deployment in front of this service.
func (p *Policy) TransportSecurityRequired() bool { return false }

// NonceLength returns the protocol's acceptable nonce length bounds.
func (p *Policy) NonceLength() (min, max int) { return nonce.MinNonceLen, nonce.MaxNonceLen }

// TimestampLifetime returns the clock-drift tolerance for launch timestamps.
func (p *Policy) TimestampLifetime() time.Duration { return timestampLifetime }

func (p *Policy) DummyClientKey() string    { return dummyClientKey }
func (p *Policy) DummyClientSecret() string { return dummyClientSecret }

// ClientSecret returns the registered secret for clientKey, or the decoy
// secret when the key is unknown or the registry is unreachable.
func (p *Policy) ClientSecret(ctx context.Context, clientKey string) string {
	c, err := p.consumers.FindByKey(ctx, clientKey)
	if err != nil {
		if !errors.Is(err, consumer.ErrNotFound) && !errors.Is(err, consumer.ErrInvalidInput) {
			p.log.Error("launch.policy.secret_lookup.fail", "err", err)
		}
		return dummyClientSecret
	}
	return c.Secret
}

// ClientKeyExists reports whether clientKey is registered. Registry
// failures report false.
func (p *Policy) ClientKeyExists(ctx context.Context, clientKey string) bool {
	ok, err := p.consumers.ExistsByKey(ctx, clientKey)
	if err != nil {
		p.log.Error("launch.policy.key_lookup.fail", "err", err)
		return false
	}
	return ok
}

// ValidateTimestampAndNonce delegates to the replay guard. Unknown
// consumers report false without recording anything.
func (p *Policy) ValidateTimestampAndNonce(ctx context.Context, clientKey string, timestamp int64, nonceValue string) bool {
	return p.guard.CheckAndRecord(ctx, clientKey, timestamp, nonceValue)
}
