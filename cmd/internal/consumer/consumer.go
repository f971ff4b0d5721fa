// Package consumer holds the registry of external parties permitted to send
// signed launch requests. Registry entries are created out-of-band by an
// administrator; launch handling only ever reads them.
package consumer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Sentinel kinds.
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
)

// Consumer identifies a registered launch consumer by its key/secret pair.
// OwnerID references the local principal responsible for this consumer.
type Consumer struct {
	ID        string
	Key       string
	Secret    string
	OwnerID   *string
	CreatedAt time.Time
}

const (
	// Key/secret bounds imposed by the signing protocol's safe subset.
	MinCredentialLen = 20
	MaxCredentialLen = 30
)

// credentialAlphabet is the character set keys and secrets are drawn from
// and validated against (ASCII letters and digits, always signature-safe).
const credentialAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ValidateCredential checks charset and length bounds for a key or secret.
func ValidateCredential(v string) error {
	if n := len(v); n < MinCredentialLen || n > MaxCredentialLen {
		return fmt.Errorf("%w: credential length %d outside [%d,%d]", ErrInvalidInput, n, MinCredentialLen, MaxCredentialLen)
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return fmt.Errorf("%w: credential contains unsafe character %q", ErrInvalidInput, c)
	}
	return nil
}

// NewCredential generates a random key or secret of the given length from
// the safe alphabet.
func NewCredential(length int) (string, error) {
	if length < MinCredentialLen || length > MaxCredentialLen {
		return "", fmt.Errorf("%w: credential length %d outside [%d,%d]", ErrInvalidInput, length, MinCredentialLen, MaxCredentialLen)
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(credentialAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = credentialAlphabet[n.Int64()]
	}
	return string(out), nil
}

// CreateInput describes a registry entry to persist. Key and Secret must
// already pass ValidateCredential.
type CreateInput struct {
	Key     string
	Secret  string
	OwnerID *string
	Now     time.Time
}

// Store is the registry persistence boundary. FindByKey and ExistsByKey are
// the only operations the launch path uses.
type Store interface {
	FindByKey(ctx context.Context, key string) (Consumer, error)
	ExistsByKey(ctx context.Context, key string) (bool, error)

	// Create persists a new consumer; the admin surface, never the launch path.
	Create(ctx context.Context, in CreateInput) (Consumer, error)
}
