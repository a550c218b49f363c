package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// FileStore persists state as a single JSON document:
//
//	{ "emails": ["a@x.org", ...], "lastRun": "2026-08-28T14:00:00Z" }
//
// lastRun is null before the first run. The format matches the
// sent_emails.json consumed by the existing reporting tooling.
type FileStore struct {
	path string
}

// NewFile creates a file-backed store at path. The file is created on
// first Commit.
func NewFile(path string) *FileStore {
	return &FileStore{path: path}
}

type fileState struct {
	Emails  []string `json:"emails"`
	LastRun *string  `json:"lastRun"`
}

func (s *FileStore) Load(_ context.Context) (*model.OutreachState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewOutreachState(), nil
		}
		return nil, eris.Wrapf(err, "store: read %s", s.path)
	}

	var fs fileState
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, eris.Wrapf(err, "store: parse %s", s.path)
	}

	state := model.NewOutreachState()
	for _, email := range fs.Emails {
		state.RecordContacted(email)
	}
	if fs.LastRun != nil {
		t, err := time.Parse(time.RFC3339, *fs.LastRun)
		if err != nil {
			return nil, eris.Wrapf(err, "store: parse lastRun in %s", s.path)
		}
		state.LastRun = &t
	}
	return state, nil
}

func (s *FileStore) Commit(_ context.Context, state *model.OutreachState) error {
	fs := fileState{Emails: state.ContactedEmails()}
	if fs.Emails == nil {
		fs.Emails = []string{}
	}
	if state.LastRun != nil {
		formatted := state.LastRun.UTC().Format(time.RFC3339)
		fs.LastRun = &formatted
	}

	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: marshal state")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrapf(err, "store: create dir for %s", s.path)
	}

	// Write-then-rename so a crash mid-write never truncates the
	// previous state.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "store: write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "store: rename %s", s.path)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
