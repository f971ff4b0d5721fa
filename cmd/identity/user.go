package identity

import (
	"context"
	"time"
)

// User is ltigate's canonical local account.
//
// Accounts come in two flavors:
//   - launch-provisioned: created on first sight of an external identity;
//     PasswordHash is nil, so the account is unreachable by direct login.
//   - owner: password-capable principals responsible for consumers.
type User struct {
	ID       string
	Username string
	Email    string

	FirstName string
	LastName  string

	// PasswordHash is a PHC Argon2id string for owner accounts and nil for
	// launch-provisioned accounts.
	PasswordHash *string

	CreatedAt  time.Time
	DisabledAt *time.Time
}

// Active reports whether the account may be used for a launch session.
func (u User) Active() bool { return u.DisabledAt == nil }

// ProvisionInput describes a create-or-fetch request derived from validated
// launch claims. Username must already be derived via DeriveUsername.
type ProvisionInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Now       time.Time
}

// CreateOwnerInput describes an owner account registration.
type CreateOwnerInput struct {
	Username string
	Email    string
	Password string
	Now      time.Time
}

// Store is the user persistence boundary.
type Store interface {
	// ProvisionUser returns the user stored under in.Username, creating it
	// when absent. created reports whether this call created the row.
	//
	// Concurrency contract: concurrent calls with the same username must
	// yield the same user; a losing creator falls back to fetching the
	// winner's row. Existing rows are returned unchanged (no profile refresh).
	ProvisionUser(ctx context.Context, in ProvisionInput) (u User, created bool, err error)

	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)

	// CreateOwner creates a password-capable owner account.
	CreateOwner(ctx context.Context, in CreateOwnerInput) (User, error)
}
