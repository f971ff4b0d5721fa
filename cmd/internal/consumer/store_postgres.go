package consumer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ltigate/cmd/identity/ids"
)

// PostgresStore implements the registry over PostgreSQL.
// The pool is owned by the caller; this store must not close it.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresStore constructs a PostgresStore (schema "ltigate").
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("consumer: nil pool")
	}
	return &PostgresStore{pool: pool, schema: "ltigate"}, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "consumers"}.Sanitize()
}

// FindByKey implements Store.
func (s *PostgresStore) FindByKey(ctx context.Context, key string) (Consumer, error) {
	if strings.TrimSpace(key) == "" {
		return Consumer{}, fmt.Errorf("consumer.FindByKey: %w: missing key", ErrInvalidInput)
	}

	var c Consumer
	err := s.pool.QueryRow(ctx,
		`SELECT id, key, secret, owner_id, created_at
		   FROM `+s.table()+`
		  WHERE key = $1`,
		key,
	).Scan(&c.ID, &c.Key, &c.Secret, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Consumer{}, fmt.Errorf("consumer.FindByKey: %w", ErrNotFound)
		}
		return Consumer{}, err
	}
	return c, nil
}

// ExistsByKey implements Store.
func (s *PostgresStore) ExistsByKey(ctx context.Context, key string) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, nil
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.table()+` WHERE key = $1)`,
		key,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Consumer, error) {
	const op = "consumer.Create"

	if err := ValidateCredential(in.Key); err != nil {
		return Consumer{}, fmt.Errorf("%s: key: %w", op, err)
	}
	if err := ValidateCredential(in.Secret); err != nil {
		return Consumer{}, fmt.Errorf("%s: secret: %w", op, err)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Consumer{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (id, key, secret, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, in.Key, in.Secret, in.OwnerID, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return Consumer{}, fmt.Errorf("%s: %w: key or secret already registered", op, ErrConflict)
		}
		return Consumer{}, err
	}

	return Consumer{
		ID:        id,
		Key:       in.Key,
		Secret:    in.Secret,
		OwnerID:   in.OwnerID,
		CreatedAt: now,
	}, nil
}
