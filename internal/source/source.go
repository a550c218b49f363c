// Package source provides pluggable raw-record sources for the
// cleaning pipeline: local CSV/JSON/XLSX files and remote HTTP
// exports. Sources return best-effort loosely-typed records; all
// validation happens downstream in the normalizer.
package source

import (
	"context"
	"strings"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// Source produces a sequence of raw contact records. The order of
// sources given to the cleaner determines dedup precedence, so a
// Source must yield records in a stable order.
type Source interface {
	// Name identifies the source in logs and reports.
	Name() string
	// Records reads the full record sequence.
	Records(ctx context.Context) ([]model.RawRecord, error)
}

// mapRow pairs each header with the corresponding value in the row.
// Headers are lower-cased and trimmed; missing trailing values become
// empty strings, extra values are dropped.
func mapRow(headers []string, row []string) model.RawRecord {
	rec := make(model.RawRecord, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.Trim(h, `"`)))
		if key == "" {
			continue
		}
		if i < len(row) {
			rec[key] = strings.TrimSpace(row[i])
		} else {
			rec[key] = ""
		}
	}
	return rec
}
