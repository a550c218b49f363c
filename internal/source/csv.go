package source

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// CSVFile reads raw records from a local CSV file. The first row is
// the header; rows with a different field count are skipped with a
// warning rather than aborting the source.
type CSVFile struct {
	Path string
}

// NewCSVFile creates a CSV file source.
func NewCSVFile(path string) *CSVFile {
	return &CSVFile{Path: path}
}

func (s *CSVFile) Name() string {
	return "csv:" + filepath.Base(s.Path)
}

func (s *CSVFile) Records(ctx context.Context) ([]model.RawRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open csv %s", s.Path)
	}
	defer f.Close() //nolint:errcheck

	return readCSV(ctx, f, s.Name())
}

func readCSV(ctx context.Context, r io.Reader, name string) ([]model.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "source: read csv header %s", name)
	}

	var records []model.RawRecord
	for {
		if ctx.Err() != nil {
			return records, eris.Wrap(ctx.Err(), "source: csv read cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			zap.L().Warn("source: skipping malformed csv row",
				zap.String("source", name),
				zap.Error(err),
			)
			continue
		}
		records = append(records, mapRow(header, row))
	}
}
