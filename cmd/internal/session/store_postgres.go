package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions over PostgreSQL.
// The pool is owned by the caller; this store must not close it.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresStore constructs a PostgresStore (schema "ltigate").
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("session: nil pool")
	}
	return &PostgresStore{pool: pool, schema: "ltigate"}, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "sessions"}.Sanitize()
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, sess Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (id, user_id, token_hash, created_at, expires_at, revoked_at)
		 VALUES ($1, $2, $3, $4, $5, NULL)`,
		sess.ID, sess.UserID, sess.TokenHash, sess.CreatedAt, sess.ExpiresAt,
	)
	return err
}

// FindByTokenHash implements Store.
func (s *PostgresStore) FindByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	var (
		out       Session
		revokedAt *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, token_hash, created_at, expires_at, revoked_at
		   FROM `+s.table()+`
		  WHERE token_hash = $1`,
		tokenHash,
	).Scan(&out.ID, &out.UserID, &out.TokenHash, &out.CreatedAt, &out.ExpiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotActive
		}
		return Session{}, err
	}
	out.RevokedAt = revokedAt
	return out, nil
}

// RevokeByTokenHash implements Store (idempotent).
func (s *PostgresStore) RevokeByTokenHash(ctx context.Context, tokenHash string, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE `+s.table()+`
		    SET revoked_at = COALESCE(revoked_at, $1)
		  WHERE token_hash = $2`,
		now, tokenHash,
	)
	return err
}

// RevokeAllForUser implements Store (idempotent).
func (s *PostgresStore) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE `+s.table()+`
		    SET revoked_at = $1
		  WHERE user_id = $2
		    AND revoked_at IS NULL`,
		now, userID,
	)
	return err
}
