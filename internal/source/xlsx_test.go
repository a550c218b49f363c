package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}

	path := filepath.Join(t.TempDir(), "shelters.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXFile_Records(t *testing.T) {
	path := writeTestWorkbook(t, "Shelters", [][]string{
		{"Name", "Email", "Phone"},
		{"Happy Paws", "a@x.org", "512-555-0142"},
		{"Second Chance", "b@y.org"},
	})

	records, err := NewXLSXFile(path).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Happy Paws", records[0].Get("name"))
	assert.Equal(t, "512-555-0142", records[0].Get("phone"))
	assert.Equal(t, "", records[1].Get("phone"), "short row padded")
}

func TestXLSXFile_NamedSheet(t *testing.T) {
	path := writeTestWorkbook(t, "Seed List", [][]string{
		{"Name", "Email"},
		{"A", "a@x.org"},
	})

	src := NewXLSXFile(path)
	src.SheetName = "Seed List"
	records, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	src.SheetName = "Missing"
	_, err = src.Records(context.Background())
	assert.Error(t, err)
}

func TestXLSXFile_MissingFile(t *testing.T) {
	_, err := NewXLSXFile(filepath.Join(t.TempDir(), "nope.xlsx")).Records(context.Background())
	assert.Error(t, err)
}
