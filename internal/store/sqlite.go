package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contacted_emails (
	email      TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS campaign_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewSQLite opens a SQLite database at the given path, configures WAL
// mode, and applies the schema.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*model.OutreachState, error) {
	state := model.NewOutreachState()

	rows, err := s.db.QueryContext(ctx, `SELECT email FROM contacted_emails`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query contacted emails")
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan email")
		}
		state.RecordContacted(email)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate emails")
	}

	var lastRun string
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM campaign_meta WHERE key = 'last_run'`,
	).Scan(&lastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, eris.Wrap(err, "sqlite: query last run")
	}
	if err == nil {
		t, parseErr := time.Parse(time.RFC3339, lastRun)
		if parseErr != nil {
			return nil, eris.Wrap(parseErr, "sqlite: parse last run")
		}
		state.LastRun = &t
	}

	return state, nil
}

func (s *SQLiteStore) Commit(ctx context.Context, state *model.OutreachState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin commit")
	}
	defer tx.Rollback() //nolint:errcheck

	// Overwrite semantics: the in-memory state is authoritative.
	if _, err := tx.ExecContext(ctx, `DELETE FROM contacted_emails`); err != nil {
		return eris.Wrap(err, "sqlite: clear contacted emails")
	}
	for _, email := range state.ContactedEmails() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO contacted_emails (email) VALUES (?)`, email,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert email %s", email)
		}
	}

	if state.LastRun != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO campaign_meta (key, value) VALUES ('last_run', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			state.LastRun.UTC().Format(time.RFC3339),
		); err != nil {
			return eris.Wrap(err, "sqlite: upsert last run")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
