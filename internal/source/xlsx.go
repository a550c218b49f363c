package source

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// XLSXFile reads raw records from the first sheet of an XLSX
// workbook, with the first row as the header. Spreadsheet exports are
// the usual format for hand-maintained seed lists.
type XLSXFile struct {
	Path      string
	SheetName string // if set, overrides the first sheet
}

// NewXLSXFile creates an XLSX file source.
func NewXLSXFile(path string) *XLSXFile {
	return &XLSXFile{Path: path}
}

func (s *XLSXFile) Name() string {
	return "xlsx:" + filepath.Base(s.Path)
}

func (s *XLSXFile) Records(ctx context.Context) ([]model.RawRecord, error) {
	f, err := xlsx.OpenFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open xlsx %s", s.Path)
	}

	sheet, err := s.sheet(f)
	if err != nil {
		return nil, err
	}

	var header []string
	var records []model.RawRecord
	for i, row := range sheet.Rows {
		if ctx.Err() != nil {
			return records, eris.Wrap(ctx.Err(), "source: xlsx read cancelled")
		}

		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}

		if i == 0 {
			header = cells
			continue
		}
		records = append(records, mapRow(header, cells))
	}
	return records, nil
}

func (s *XLSXFile) sheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if s.SheetName != "" {
		sheet, ok := f.Sheet[s.SheetName]
		if !ok {
			return nil, eris.Errorf("source: xlsx sheet %q not found in %s", s.SheetName, s.Path)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("source: xlsx %s has no sheets", s.Path)
	}
	return f.Sheets[0], nil
}
