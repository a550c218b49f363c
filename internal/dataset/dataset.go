// Package dataset reads and writes canonical dataset snapshots.
//
// Each cleaning run writes a pair of timestamped artifacts into the
// output directory: CLEAN_shelters_<date>.csv and a JSON mirror with
// the same records. Snapshots are never mutated; the newest CSV is
// the active dataset.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

const (
	snapshotPrefix = "CLEAN_shelters_"
	csvHeader      = "Name,Email,Phone,City,State,Website,Facebook,Type,Notes"
)

// Writer persists canonical dataset snapshots.
type Writer struct {
	Dir string
}

// NewWriter creates a snapshot writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Write stores the dataset as a CSV snapshot plus a JSON mirror, both
// keyed by the dataset's creation date. Returns the two paths.
func (w *Writer) Write(ds *model.CanonicalDataset) (csvPath string, jsonPath string, err error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", "", eris.Wrapf(err, "dataset: create dir %s", w.Dir)
	}

	date := ds.CreatedAt.Format("2006-01-02")
	csvPath = filepath.Join(w.Dir, snapshotPrefix+date+".csv")
	jsonPath = filepath.Join(w.Dir, snapshotPrefix+date+".json")

	if err := os.WriteFile(csvPath, []byte(EncodeCSV(ds.Records)), 0o644); err != nil {
		return "", "", eris.Wrapf(err, "dataset: write %s", csvPath)
	}

	data, err := json.MarshalIndent(ds.Records, "", "  ")
	if err != nil {
		return "", "", eris.Wrap(err, "dataset: marshal json mirror")
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", eris.Wrapf(err, "dataset: write %s", jsonPath)
	}

	return csvPath, jsonPath, nil
}

// EncodeCSV renders records in the snapshot CSV format. Name, City,
// and Notes are always quoted; the remaining columns are written bare.
// The quoting is part of the on-disk contract with existing tooling,
// which is why this is hand-rolled rather than csv.Writer.
func EncodeCSV(records []model.ContactRecord) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	for _, r := range records {
		b.WriteByte('\n')
		b.WriteString(`"` + r.Name + `",`)
		b.WriteString(r.Email + ",")
		b.WriteString(r.Phone + ",")
		b.WriteString(`"` + r.City + `",`)
		b.WriteString(r.State + ",")
		b.WriteString(r.Website + ",")
		b.WriteString(r.Facebook + ",")
		b.WriteString(r.Type + ",")
		b.WriteString(`"` + r.Notes + `"`)
	}
	return b.String()
}

// Latest returns the path of the newest CSV snapshot in dir, or ""
// when none exists.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", eris.Wrapf(err, "dataset: read dir %s", dir)
	}

	var snapshots []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "CLEAN_") && strings.HasSuffix(name, ".csv") {
			snapshots = append(snapshots, name)
		}
	}
	if len(snapshots) == 0 {
		return "", nil
	}

	// Date-stamped names sort chronologically.
	sort.Strings(snapshots)
	return filepath.Join(dir, snapshots[len(snapshots)-1]), nil
}

// Load reads a CSV snapshot back into records.
func Load(path string) ([]model.ContactRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read header %s", path)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	field := func(row []string, key string) string {
		i, ok := idx[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []model.ContactRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: read row %s", path)
		}
		records = append(records, model.ContactRecord{
			Name:     field(row, "name"),
			Email:    field(row, "email"),
			Phone:    field(row, "phone"),
			City:     field(row, "city"),
			State:    field(row, "state"),
			Website:  field(row, "website"),
			Facebook: field(row, "facebook"),
			Type:     field(row, "type"),
			Notes:    field(row, "notes"),
		})
	}
}
