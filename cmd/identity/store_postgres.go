package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements user persistence over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - ProvisionUser relies on the unique index on users(username): the insert
//   fails atomically on duplicate and the loser falls back to fetching the
//   winner's row. This is load-bearing for concurrent first launches.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the user store (default "ltigate").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "ltigate",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// ProvisionUser returns the user stored under in.Username, creating it when absent.
func (s *PostgresStore) ProvisionUser(ctx context.Context, in ProvisionInput) (User, bool, error) {
	const op = "identity.ProvisionUser"

	if s == nil || s.pool == nil {
		return User{}, false, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}
	if strings.TrimSpace(in.Username) == "" {
		return User{}, false, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing username"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return User{}, false, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing email"}
	}

	// Fast path: the identity was seen before.
	u, err := s.GetUserByUsername(ctx, in.Username)
	if err == nil {
		return u, false, nil
	}
	if !IsNotFound(err) {
		return User{}, false, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, false, err
	}

	users := pgIdent(s.schema, "users")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (
		     id, username, email, first_name, last_name, password_hash, created_at
		   ) VALUES ($1, $2, $3, $4, $5, NULL, $6)`,
		userID, in.Username, in.Email, in.FirstName, in.LastName, now,
	)
	if err != nil {
		if pgIsUniqueViolation(err) {
			// A concurrent first launch won the insert; adopt its row.
			winner, ferr := s.GetUserByUsername(ctx, in.Username)
			if ferr != nil {
				return User{}, false, ferr
			}
			return winner, false, nil
		}
		return User{}, false, err
	}

	return User{
		ID:        userID,
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
	}, true, nil
}

// GetUserByUsername fetches a user by its exact username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.GetUserByUsername"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if strings.TrimSpace(username) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing username"}
	}

	users := pgIdent(s.schema, "users")
	return s.scanUser(ctx, op,
		`SELECT id, username, email, first_name, last_name, password_hash, created_at, disabled_at
		   FROM `+users+`
		  WHERE username = $1`,
		username,
	)
}

// GetUserByID fetches a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if strings.TrimSpace(id) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing id"}
	}

	users := pgIdent(s.schema, "users")
	return s.scanUser(ctx, op,
		`SELECT id, username, email, first_name, last_name, password_hash, created_at, disabled_at
		   FROM `+users+`
		  WHERE id = $1`,
		id,
	)
}

// CreateOwner creates a password-capable owner account.
func (s *PostgresStore) CreateOwner(ctx context.Context, in CreateOwnerInput) (User, error) {
	const op = "identity.CreateOwner"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing username"}
	}
	email := NormalizeEmail(in.Email)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing email"}
	}

	hash, err := HashPassword(in.Password, DefaultArgon2idParams())
	if err != nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (
		     id, username, email, first_name, last_name, password_hash, created_at
		   ) VALUES ($1, $2, $3, '', '', $4, $5)`,
		userID, username, email, hash, now,
	)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "username"}
		}
		return User{}, err
	}

	return User{
		ID:           userID,
		Username:     username,
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    now,
	}, nil
}

// ---- helpers ----

func (s *PostgresStore) scanUser(ctx context.Context, op, query string, args ...any) (User, error) {
	var (
		u          User
		pwHash     *string
		disabledAt *time.Time
	)

	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&pwHash,
		&u.CreatedAt,
		&disabledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}

	u.PasswordHash = pwHash
	u.DisabledAt = disabledAt
	return u, nil
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
