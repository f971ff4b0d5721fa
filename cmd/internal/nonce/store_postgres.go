package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ltigate/cmd/identity/ids"
)

// PostgresStore persists replay records over PostgreSQL.
//
// Insert resolves the consumer key and writes the record in a single
// INSERT ... SELECT statement; the unique index on
// (consumer_id, ts, nonce) rejects duplicates atomically, so concurrent
// requests with the same tuple cannot both succeed.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresStore constructs a PostgresStore (schema "ltigate").
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("nonce: nil pool")
	}
	return &PostgresStore{pool: pool, schema: "ltigate"}, nil
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, consumerKey string, timestamp int64, nonce string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	id, err := ids.NewULID(now)
	if err != nil {
		return err
	}

	records := pgx.Identifier{s.schema, "replay_records"}.Sanitize()
	consumers := pgx.Identifier{s.schema, "consumers"}.Sanitize()

	ct, err := s.pool.Exec(ctx,
		`INSERT INTO `+records+` (id, consumer_id, ts, nonce, created_at)
		 SELECT $1, c.id, $2, $3, $4
		   FROM `+consumers+` c
		  WHERE c.key = $5`,
		id, timestamp, nonce, now, consumerKey,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrDuplicate
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrUnknownConsumer
	}
	return nil
}
