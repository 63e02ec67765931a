package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSXSheet_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Enrollment": {
			{"County", "2025", "2026"},
			{"Adams", "1,200", "1180"},
			{"Berks", "980", ""},
		},
	})

	sheet, err := ReadXLSXSheet(path, XLSXOptions{SheetName: "Enrollment"})
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Adams", sheet.Cell(1, 0))

	v, ok := sheet.CellInt(1, 1)
	assert.True(t, ok)
	assert.Equal(t, 1200, v)

	_, ok = sheet.CellInt(2, 2)
	assert.False(t, ok, "empty cell should not parse")
}

func TestReadXLSXSheet_SkipRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"K-12 Enrollment Projections"},
			{""},
			{"County", "2025"},
			{"Polk", "4100"},
		},
	})

	sheet, err := ReadXLSXSheet(path, XLSXOptions{SkipRows: 2})
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "County", sheet.Cell(0, 0))
	assert.Equal(t, "Polk", sheet.Cell(1, 0))
}

func TestReadXLSXSheet_MissingSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"a"}},
	})

	_, err := ReadXLSXSheet(path, XLSXOptions{SheetName: "Nope"})
	assert.Error(t, err)

	_, err = ReadXLSXSheet(path, XLSXOptions{SheetIndex: 3})
	assert.Error(t, err)
}

func TestReadXLSXSheets_All(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"2025-26": {{"Division", "Total"}, {"Virginia", "1214000"}},
	})

	sheets, err := ReadXLSXSheets(path)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "2025-26", sheets[0].Name)

	v, ok := sheets[0].CellInt(1, 1)
	assert.True(t, ok)
	assert.Equal(t, 1214000, v)
}

func TestCellInt_Rounding(t *testing.T) {
	s := &Sheet{Rows: [][]string{{"1200.6", "-5.4", "-5.6"}}}

	v, ok := s.CellInt(0, 0)
	require.True(t, ok)
	assert.Equal(t, 1201, v)

	v, ok = s.CellInt(0, 1)
	require.True(t, ok)
	assert.Equal(t, -5, v)

	v, ok = s.CellInt(0, 2)
	require.True(t, ok)
	assert.Equal(t, -6, v)
}

func TestCellFloat(t *testing.T) {
	s := &Sheet{Rows: [][]string{{"1,234.56", "x"}}}

	f, ok := s.CellFloat(0, 0)
	assert.True(t, ok)
	assert.InDelta(t, 1234.56, f, 0.001)

	_, ok = s.CellFloat(0, 1)
	assert.False(t, ok)

	// Out of range access is safe.
	assert.Equal(t, "", s.Cell(5, 5))
}
