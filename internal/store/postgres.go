package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock
// implements it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contacted_emails (
	email      TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaign_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewPostgres creates a PostgresStore with a connection pool and
// applies the schema.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s := &PostgresStore{pool: pool}
	if _, err := pool.Exec(ctx, postgresMigration); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: migrate")
	}
	return s, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Load(ctx context.Context) (*model.OutreachState, error) {
	state := model.NewOutreachState()

	rows, err := s.pool.Query(ctx, `SELECT email FROM contacted_emails`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query contacted emails")
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, eris.Wrap(err, "postgres: scan email")
		}
		state.RecordContacted(email)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate emails")
	}

	var lastRun string
	err = s.pool.QueryRow(ctx,
		`SELECT value FROM campaign_meta WHERE key = 'last_run'`,
	).Scan(&lastRun)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "postgres: query last run")
	}
	if err == nil {
		t, parseErr := time.Parse(time.RFC3339, lastRun)
		if parseErr != nil {
			return nil, eris.Wrap(parseErr, "postgres: parse last run")
		}
		state.LastRun = &t
	}

	return state, nil
}

func (s *PostgresStore) Commit(ctx context.Context, state *model.OutreachState) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin commit")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM contacted_emails`); err != nil {
		return eris.Wrap(err, "postgres: clear contacted emails")
	}
	for _, email := range state.ContactedEmails() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO contacted_emails (email) VALUES ($1)`, email,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert email %s", email)
		}
	}

	if state.LastRun != nil {
		if _, err := tx.Exec(ctx,
			`INSERT INTO campaign_meta (key, value) VALUES ('last_run', $1)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
			state.LastRun.UTC().Format(time.RFC3339),
		); err != nil {
			return eris.Wrap(err, "postgres: upsert last run")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
