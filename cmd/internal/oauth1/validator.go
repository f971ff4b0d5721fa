package oauth1

import (
	"context"
	"time"
)

// Validator is the policy surface consulted during request verification.
//
// Implementations must be total: lookups for unknown client keys return
// decoy values rather than errors, so the verification path (and its
// timing) is the same for unknown keys as for wrong signatures.
type Validator interface {
	// TransportSecurityRequired reports whether requests must arrive over TLS.
	TransportSecurityRequired() bool

	// NonceLength returns the acceptable [min, max] nonce length bounds.
	NonceLength() (min, max int)

	// TimestampLifetime bounds how far oauth_timestamp may differ from the
	// server clock, in either direction. Non-positive disables the check.
	TimestampLifetime() time.Duration

	// DummyClientKey and DummyClientSecret are fixed decoy credentials used
	// on the unknown-client path. The dummy secret can never produce a
	// matching signature.
	DummyClientKey() string
	DummyClientSecret() string

	// ClientSecret returns the shared secret for a client key, or the dummy
	// secret when the key is unknown. It never returns an error.
	ClientSecret(ctx context.Context, clientKey string) string

	// ClientKeyExists reports whether the client key is registered.
	ClientKeyExists(ctx context.Context, clientKey string) bool

	// ValidateTimestampAndNonce reports whether the (timestamp, nonce) pair
	// is fresh for the client, recording it when it is.
	ValidateTimestampAndNonce(ctx context.Context, clientKey string, timestamp int64, nonce string) bool
}
