package extract

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// Virginia reads the Weldon Cooper Center workbook: one sheet per school
// year, each with division rows and a "Virginia" statewide total row whose
// last column carries the total. Divisions do not map cleanly onto
// counties, so only the state total is kept.
type Virginia struct{}

// NewVirginia creates the Weldon Cooper Center extractor.
func NewVirginia() *Virginia { return &Virginia{} }

func (v *Virginia) Name() string             { return "va_cooper" }
func (v *Virginia) StateFIPS() string        { return "51" }
func (v *Virginia) GeoLevel() model.GeoLevel { return model.GeoState }

const vaSourceID = "va_cooper_2024"

func (v *Virginia) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	if raw.Format != model.FormatExcel {
		return nil, &UnsupportedFormatError{Extractor: v.Name(), Format: raw.Format}
	}

	sheets, err := fetcher.ReadXLSXSheets(raw.Path)
	if err != nil {
		return nil, &ParseError{Extractor: v.Name(), Detail: err.Error()}
	}

	res := &Result{}
	totals := make(map[int]int)
	for _, sheet := range sheets {
		year, total, ok := vaStateTotal(sheet)
		if !ok {
			continue
		}
		if err := validatePoint("Virginia", year, total); err != nil {
			res.Rejected = append(res.Rejected, err)
			continue
		}
		totals[year] = total
	}

	if len(totals) == 0 {
		return nil, &ParseError{Extractor: v.Name(), Detail: "no statewide total rows found"}
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		res.Points = append(res.Points, model.ProjectionPoint{
			GeoID:      "51",
			GeoName:    "Virginia",
			GeoLevel:   model.GeoState,
			StateFIPS:  "51",
			Year:       y,
			Enrollment: totals[y],
			SourceID:   vaSourceID,
			Method:     model.MethodDirect,
		})
	}
	return res, nil
}

// vaStateTotal locates the "Virginia" row on a sheet and returns the fall
// year (from the sheet name or School Year column) and the trailing total.
func vaStateTotal(sheet *fetcher.Sheet) (year int, total int, ok bool) {
	headerRow := -1
	for r := 0; r < len(sheet.Rows) && r < 10; r++ {
		if strings.Contains(sheet.Cell(r, 0), "Division") {
			headerRow = r
			break
		}
	}
	if headerRow < 0 {
		return 0, 0, false
	}

	for r := headerRow + 1; r < len(sheet.Rows); r++ {
		if sheet.Cell(r, 0) != "Virginia" {
			continue
		}

		// Fall year comes from the School Year column, then the sheet name.
		if y, found := fallYearOf(sheet.Cell(r, 2)); found {
			year = y
		} else if y, found := fallYearOf(sheet.Name); found {
			year = y
		} else {
			return 0, 0, false
		}

		row := sheet.Rows[r]
		for col := len(row) - 1; col >= 0; col-- {
			if f, found := sheet.CellFloat(r, col); found {
				return year, int(math.Round(f)), true
			}
		}
		return 0, 0, false
	}
	return 0, 0, false
}
