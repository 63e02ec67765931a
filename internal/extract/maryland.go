package extract

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// Maryland reads the Department of Planning school enrollment projection
// workbook: calendar-year columns on the third row, one row per
// jurisdiction, with region subtotal and state total rows skipped.
type Maryland struct{}

// NewMaryland creates the Maryland Department of Planning extractor.
func NewMaryland() *Maryland { return &Maryland{} }

func (m *Maryland) Name() string             { return "md_planning" }
func (m *Maryland) StateFIPS() string        { return "24" }
func (m *Maryland) GeoLevel() model.GeoLevel { return model.GeoCounty }

const mdSourceID = "md_planning_2025"

// mdSkipRows are the aggregate rows interleaved with jurisdictions.
var mdSkipRows = map[string]bool{
	"MARYLAND":                   true,
	"Baltimore Region":           true,
	"Washington Suburban Region": true,
	"Southern Maryland":          true,
	"Western Maryland":           true,
	"Upper Eastern Shore":        true,
	"Lower Eastern Shore":        true,
	"Year":                       true,
}

func (m *Maryland) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	if raw.Format != model.FormatExcel {
		return nil, &UnsupportedFormatError{Extractor: m.Name(), Format: raw.Format}
	}

	sheet, err := fetcher.ReadXLSXSheet(raw.Path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, &ParseError{Extractor: m.Name(), Detail: err.Error()}
	}

	const headerRow = 2
	type yearCol struct {
		col  int
		year int
	}
	var yearCols []yearCol
	for col := 2; col < 20; col++ {
		if year, err := strconv.Atoi(sheet.Cell(headerRow, col)); err == nil &&
			year >= minPlausibleYear && year <= maxPlausibleYear {
			yearCols = append(yearCols, yearCol{col: col, year: year})
		}
	}
	if len(yearCols) == 0 {
		return nil, &ParseError{Extractor: m.Name(), Detail: "no calendar-year columns found on header row"}
	}

	log := zap.L().With(zap.String("extractor", m.Name()))
	res := &Result{}
	for row := headerRow + 1; row < len(sheet.Rows); row++ {
		name := sheet.Cell(row, 1)
		if name == "" || mdSkipRows[name] {
			continue
		}
		fips, ok := mdCountyFIPS[name]
		if !ok {
			log.Warn("unknown jurisdiction", zap.String("jurisdiction", name))
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
				GeoName:    name + ", MD",
				GeoLevel:   model.GeoCounty,
				StateFIPS:  "24",
				Year:       year,
				Enrollment: v,
				SourceID:   mdSourceID,
				Method:     model.MethodDirect,
			})
		}
	}

	if len(res.Points) == 0 {
		return nil, &ParseError{Extractor: m.Name(), Detail: "no jurisdiction rows parsed"}
	}
	return res, nil
}
