// Package runlog persists the per-day audit log of dispatch attempts.
package runlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

const dirName = "daily_logs"

// Writer stores run-log artifacts under <outputDir>/daily_logs, one
// JSON array per calendar day.
type Writer struct {
	dir string
}

// NewWriter creates a run-log writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{dir: filepath.Join(outputDir, dirName)}
}

// Append writes the invocation's entries into the log file for day.
// Entries from an earlier invocation on the same day are preserved;
// existing entries are never modified.
func (w *Writer) Append(day time.Time, entries []model.RunLogEntry) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "runlog: create dir %s", w.dir)
	}

	path := filepath.Join(w.dir, day.Format("2006-01-02")+".json")

	existing, err := readFile(path)
	if err != nil {
		return "", err
	}
	combined := append(existing, entries...)

	data, err := json.MarshalIndent(combined, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "runlog: marshal entries")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "runlog: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", eris.Wrapf(err, "runlog: rename %s", path)
	}
	return path, nil
}

// ReadAll loads every daily log under outputDir, newest day first.
// Unparseable files are skipped; the audit trail is best effort when
// read back.
func ReadAll(outputDir string) ([]model.RunLogEntry, error) {
	dir := filepath.Join(outputDir, dirName)
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "runlog: read dir %s", dir)
	}

	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".json") {
			names = append(names, f.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var all []model.RunLogEntry
	for _, name := range names {
		entries, err := readFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		all = append(all, entries...)
	}
	return all, nil
}

func readFile(path string) ([]model.RunLogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "runlog: read %s", path)
	}
	var entries []model.RunLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "runlog: parse %s", path)
	}
	return entries, nil
}
