package extract

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// Iowa reads the DOE certified enrollment projection workbook: one row per
// district with county code/name columns and ten school-year columns
// (five actual, five projected). District rows are summed to county level;
// only the projected school years are kept.
type Iowa struct{}

// NewIowa creates the Iowa DOE extractor.
func NewIowa() *Iowa { return &Iowa{} }

func (i *Iowa) Name() string             { return "ia_doe" }
func (i *Iowa) StateFIPS() string        { return "19" }
func (i *Iowa) GeoLevel() model.GeoLevel { return model.GeoCounty }

const iaSourceID = "ia_doe_certified"

// Workbook geometry: header on row 9 (zero-based 8), county code in the
// third column, year columns 7-16.
const (
	iaHeaderRow    = 8
	iaCountyCode   = 2
	iaCountyName   = 3
	iaFirstYearCol = 6
	iaLastYearCol  = 15
)

func (i *Iowa) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	if raw.Format != model.FormatExcel {
		return nil, &UnsupportedFormatError{Extractor: i.Name(), Format: raw.Format}
	}

	sheet, err := fetcher.ReadXLSXSheet(raw.Path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, &ParseError{Extractor: i.Name(), Detail: err.Error()}
	}

	// Projected columns are the school years starting at the current
	// certification year; actual years are skipped.
	type yearCol struct {
		col  int
		year int
	}
	var projected []yearCol
	for col := iaFirstYearCol; col <= iaLastYearCol; col++ {
		label := sheet.Cell(iaHeaderRow, col)
		if fall, ok := fallYearOf(label); ok && fall >= 2025 {
			projected = append(projected, yearCol{col: col, year: fall})
		}
	}
	if len(projected) == 0 {
		return nil, &ParseError{Extractor: i.Name(), Detail: "no projected school-year columns found"}
	}

	log := zap.L().With(zap.String("extractor", i.Name()))
	res := &Result{}

	type countyAgg struct {
		name   string
		totals map[int]int
	}
	counties := make(map[string]*countyAgg)

	for row := iaHeaderRow + 1; row < len(sheet.Rows); row++ {
		codeStr := sheet.Cell(row, iaCountyCode)
		name := sheet.Cell(row, iaCountyName)
		if codeStr == "" || name == "" {
			continue
		}
		code, err := strconv.Atoi(codeStr)
		if err != nil {
			continue
		}
		fips, ok := iaCountyFIPS(code)
		if !ok {
			log.Warn("county code out of range", zap.Int("code", code))
			continue
		}

		agg := counties[fips]
		if agg == nil {
			agg = &countyAgg{name: name, totals: make(map[int]int)}
			counties[fips] = agg
		}

		for _, yc := range projected {
			v, ok := sheet.CellInt(row, yc.col)
			if !ok {
				continue
			}
			if err := validatePoint(name, yc.year, v); err != nil {
				res.Rejected = append(res.Rejected, err)
				continue
			}
			agg.totals[yc.year] += v
		}
	}

	if len(counties) == 0 {
		return nil, &ParseError{Extractor: i.Name(), Detail: "no district rows parsed"}
	}

	fipsList := make([]string, 0, len(counties))
	for fips := range counties {
		fipsList = append(fipsList, fips)
	}
	sort.Strings(fipsList)

	for _, fips := range fipsList {
		agg := counties[fips]
		years := make([]int, 0, len(agg.totals))
		for y := range agg.totals {
			years = append(years, y)
		}
		sort.Ints(years)
		for _, y := range years {
			res.Points = append(res.Points, model.ProjectionPoint{
				GeoID:      fips,
				GeoName:    agg.name + " County, IA",
				GeoLevel:   model.GeoCounty,
				StateFIPS:  "19",
				Year:       y,
				Enrollment: agg.totals[y],
				SourceID:   iaSourceID,
				Method:     model.MethodAggregated,
			})
		}
	}
	return res, nil
}
