package launch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ltigate/cmd/identity"
)

// ErrDenied is returned for every authentication failure a launch consumer
// may observe: missing required claims, a disabled account, or an
// infrastructure fault. The cause is logged, never surfaced.
var ErrDenied = errors.New("launch: authentication denied")

// Hook runs after a user is first provisioned. Hook failures are logged
// and do not fail the launch.
type Hook func(ctx context.Context, u identity.User) error

// Authenticator maps verified launch claims to a local user, provisioning
// one on first sight.
type Authenticator struct {
	users identity.Store
	hook  Hook
	log   *slog.Logger
}

// NewAuthenticator constructs an Authenticator. hook may be nil.
func NewAuthenticator(users identity.Store, hook Hook, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{users: users, hook: hook, log: log}
}

// Authenticate resolves claims to an active local user. The external user
// id and email are required; names fall back to a fixed placeholder. An
// existing user is returned unchanged, with no profile refresh.
func (a *Authenticator) Authenticate(ctx context.Context, now time.Time, c Claims) (identity.User, error) {
	if c.UserID == "" || c.Email == "" {
		return identity.User{}, ErrDenied
	}

	email := identity.NormalizeEmail(c.Email)
	username := identity.DeriveUsername(c.Email, c.UserID)

	u, created, err := a.users.ProvisionUser(ctx, identity.ProvisionInput{
		Username:  username,
		Email:     email,
		FirstName: identity.NormalizeName(c.GivenName),
		LastName:  identity.NormalizeName(c.FamilyName),
		Now:       now,
	})
	if err != nil {
		a.log.Error("launch.authenticate.provision.fail", "err", err)
		return identity.User{}, ErrDenied
	}

	if created {
		a.log.Info("launch.user.provisioned", "user_id", u.ID)
		if a.hook != nil {
			if err := a.hook(ctx, u); err != nil {
				a.log.Error("launch.hook.fail", "user_id", u.ID, "err", err)
			}
		}
	}

	if !u.Active() {
		a.log.Warn("launch.authenticate.disabled", "user_id", u.ID)
		return identity.User{}, ErrDenied
	}
	return u, nil
}
