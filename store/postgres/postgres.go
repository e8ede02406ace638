// Package postgres implements the repositories on PostgreSQL via pgx. All
// coordination is pushed to the store: unique constraints settle creation
// races and single-statement updates keep generation bumps atomic.
package postgres

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS authentication_providers (
	id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	provider_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS users (
	id                       TEXT PRIMARY KEY,
	email                    TEXT UNIQUE,
	password_hash            TEXT,
	is_verified              BOOLEAN NOT NULL DEFAULT FALSE,
	refresh_token_generation BIGINT NOT NULL DEFAULT 1 CHECK (refresh_token_generation >= 1),
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS provider_links (
	provider_id         BIGINT NOT NULL REFERENCES authentication_providers(id),
	provider_subject_id TEXT NOT NULL,
	user_id             TEXT NOT NULL REFERENCES users(id),
	PRIMARY KEY (provider_id, provider_subject_id)
);

INSERT INTO authentication_providers (provider_name)
VALUES ('Google'), ('Facebook'), ('Discord')
ON CONFLICT (provider_name) DO NOTHING;
`

// Connect opens a pool and pings it, retrying for up to thirty seconds so a
// service starting alongside its database does not crash-loop.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.Connect] pgxpool.New")
	}

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 6), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[postgres.Connect] ping")
	}
	return pool, nil
}

// EnsureSchema creates the tables and seeds the provider catalog.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "[postgres.EnsureSchema]")
	}
	return nil
}
