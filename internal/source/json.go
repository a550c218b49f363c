package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// JSONFile reads raw records from a JSON array of objects, the mirror
// format written alongside canonical CSV snapshots and produced by
// earlier API harvests. Non-string scalar values are stringified;
// nested values are ignored.
type JSONFile struct {
	Path string
}

// NewJSONFile creates a JSON file source.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

func (s *JSONFile) Name() string {
	return "json:" + filepath.Base(s.Path)
}

func (s *JSONFile) Records(ctx context.Context) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "source: json read cancelled")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read json %s", s.Path)
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, eris.Wrapf(err, "source: parse json %s", s.Path)
	}

	records := make([]model.RawRecord, 0, len(objects))
	for _, obj := range objects {
		rec := make(model.RawRecord, len(obj))
		for k, v := range obj {
			key := strings.ToLower(strings.TrimSpace(k))
			switch val := v.(type) {
			case string:
				rec[key] = val
			case float64, bool:
				rec[key] = fmt.Sprint(val)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
