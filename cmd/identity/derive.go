package identity

import (
	"crypto/sha1" // #nosec G505 -- non-adversarial uniqueness hash, not a security boundary.
	"encoding/hex"
	"strings"
)

const (
	// NamePlaceholder substitutes absent given/family names.
	NamePlaceholder = "LTI"

	maxUsernameLen = 120
	maxNameLen     = 30
)

// DeriveUsername maps an external identity to a stable local username:
// the email followed by the hex SHA-1 of the external user id, truncated
// to the storage bound. The email prefix keeps usernames human-recognizable;
// the hash keeps them unique per external identity.
//
// The derivation is pure: same inputs yield the same username on every call.
func DeriveUsername(email, externalUserID string) string {
	sum := sha1.Sum([]byte(externalUserID)) // #nosec G401
	u := email + "_" + hex.EncodeToString(sum[:])
	if len(u) > maxUsernameLen {
		u = u[:maxUsernameLen]
	}
	return u
}

// NormalizeName trims a claim-supplied name, substitutes the placeholder
// when absent, and truncates to the profile storage bound.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		s = NamePlaceholder
	}
	if len(s) > maxNameLen {
		s = s[:maxNameLen]
	}
	return s
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
