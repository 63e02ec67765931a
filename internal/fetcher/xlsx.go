package fetcher

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipRows   int    // leading rows to drop (title banners, merged headers)
}

// Sheet is an in-memory cell grid read from one worksheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// Cell returns the cell at (row, col), or "" when out of range. Indices are
// zero-based relative to the rows kept after SkipRows.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// CellInt parses the cell at (row, col) as an integer enrollment count.
// Thousands separators and a trailing ".0" from float-formatted cells are
// tolerated. ok is false for empty or non-numeric cells.
func (s *Sheet) CellInt(row, col int) (int, bool) {
	raw := strings.ReplaceAll(s.Cell(row, col), ",", "")
	if raw == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(math.Round(f)), true
	}
	return 0, false
}

// CellFloat parses the cell at (row, col) as a float (ADA values etc.).
func (s *Sheet) CellFloat(row, col int) (float64, bool) {
	raw := strings.ReplaceAll(s.Cell(row, col), ",", "")
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ReadXLSXSheet reads one worksheet from an XLSX file into a cell grid.
func ReadXLSXSheet(path string, opts XLSXOptions) (*Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	return sheetFromFile(f, opts)
}

// ReadXLSXSheets reads every worksheet in an XLSX file. Used for workbooks
// that spread years across sheets (e.g. one sheet per projection year).
func ReadXLSXSheets(path string) ([]*Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	sheets := make([]*Sheet, 0, len(f.Sheets))
	for _, sh := range f.Sheets {
		sheets = append(sheets, &Sheet{Name: sh.Name, Rows: gridOf(sh, 0)})
	}
	return sheets, nil
}

func sheetFromFile(f *xlsx.File, opts XLSXOptions) (*Sheet, error) {
	if opts.SheetName != "" {
		sh, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return &Sheet{Name: sh.Name, Rows: gridOf(sh, opts.SkipRows)}, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	sh := f.Sheets[opts.SheetIndex]
	return &Sheet{Name: sh.Name, Rows: gridOf(sh, opts.SkipRows)}, nil
}

func gridOf(sh *xlsx.Sheet, skip int) [][]string {
	var rows [][]string
	for i, row := range sh.Rows {
		if i < skip {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows
}
