// Package store persists the durable outreach state: the set of
// contacted emails and the last campaign run timestamp.
//
// Three backends implement the same contract: a JSON file (the
// default, byte-compatible with the sent_emails.json used by earlier
// tooling), SQLite, and Postgres. Commit has overwrite semantics —
// the caller holds the complete authoritative in-memory state.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/whitecoat-dvm/outreach-cli/internal/config"
	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// Store loads and commits outreach state.
type Store interface {
	// Load returns the persisted state, or an empty state when
	// nothing has been persisted yet.
	Load(ctx context.Context) (*model.OutreachState, error)
	// Commit atomically persists the full state, replacing whatever
	// was stored before.
	Commit(ctx context.Context, state *model.OutreachState) error
	// Close releases backend resources.
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "file":
		return NewFile(cfg.Path), nil
	case "sqlite":
		return NewSQLite(ctx, cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
