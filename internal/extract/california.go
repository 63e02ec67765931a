package extract

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// California reads the DOF K-12 county enrollment projection workbook.
// Layout: sheet "County Enrollment Projection", school-year columns
// ("2024-25"...) on the third row, one row per county, a "California"
// statewide row that is skipped.
type California struct{}

// NewCalifornia creates the California DOF extractor.
func NewCalifornia() *California { return &California{} }

func (c *California) Name() string             { return "ca_dof" }
func (c *California) StateFIPS() string        { return "06" }
func (c *California) GeoLevel() model.GeoLevel { return model.GeoCounty }

const caSourceID = "ca_dof_2025"

func (c *California) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	if raw.Format != model.FormatExcel {
		return nil, &UnsupportedFormatError{Extractor: c.Name(), Format: raw.Format}
	}

	sheet, err := fetcher.ReadXLSXSheet(raw.Path, fetcher.XLSXOptions{SheetName: "County Enrollment Projection"})
	if err != nil {
		return nil, &ParseError{Extractor: c.Name(), Detail: err.Error()}
	}

	// Header row: school-year labels like "2024-25"; the fall year keys the point.
	const headerRow = 2
	type yearCol struct {
		col  int
		year int
	}
	var yearCols []yearCol
	for col := 1; col < 30; col++ {
		label := sheet.Cell(headerRow, col)
		if fall, ok := fallYearOf(label); ok {
			yearCols = append(yearCols, yearCol{col: col, year: fall})
		}
	}
	if len(yearCols) == 0 {
		return nil, &ParseError{Extractor: c.Name(), Detail: "no school-year columns found on header row"}
	}

	log := zap.L().With(zap.String("extractor", c.Name()))
	res := &Result{}
	for row := headerRow + 1; row < len(sheet.Rows); row++ {
		name := sheet.Cell(row, 0)
		if name == "" || name == "California" {
			continue
		}
		fips, ok := caCountyFIPS[name]
		if !ok {
			log.Warn("unknown county name", zap.String("county", name))
			continue
		}

		for _, yc := range yearCols {
			v, ok := sheet.CellInt(row, yc.col)
			if !ok {
				continue
			}
			year := yc.year
			if err := validatePoint(name, year, v); err != nil {
				res.Rejected = append(res.Rejected, err)
				continue
			}
			res.Points = append(res.Points, model.ProjectionPoint{
				GeoID:      fips,
				GeoName:    name + " County, CA",
				GeoLevel:   model.GeoCounty,
				StateFIPS:  "06",
				Year:       year,
				Enrollment: v,
				SourceID:   caSourceID,
				Method:     model.MethodDirect,
			})
		}
	}

	if len(res.Points) == 0 {
		return nil, &ParseError{Extractor: c.Name(), Detail: "no county rows parsed"}
	}
	return res, nil
}

// fallYearOf parses a school-year label like "2024-25" or "2025 - 2026" into
// its fall calendar year.
func fallYearOf(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if label == "" || !strings.Contains(label, "-") {
		return 0, false
	}
	first := strings.TrimSpace(strings.SplitN(label, "-", 2)[0])
	year, err := strconv.Atoi(first)
	if err != nil || year < minPlausibleYear || year > maxPlausibleYear {
		return 0, false
	}
	return year, true
}
