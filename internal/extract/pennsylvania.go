package extract

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// Pennsylvania reads the PDE district enrollment projection workbook:
// long-format rows (Datatype, AUN, School Year, LEA Name, County, K, 001-012)
// on the "Enrollment Projection Data" sheet. Projection rows are summed over
// grades K-12 and aggregated from districts to counties.
type Pennsylvania struct{}

// NewPennsylvania creates the Pennsylvania DOE extractor.
func NewPennsylvania() *Pennsylvania { return &Pennsylvania{} }

func (p *Pennsylvania) Name() string             { return "pa_pde" }
func (p *Pennsylvania) StateFIPS() string        { return "42" }
func (p *Pennsylvania) GeoLevel() model.GeoLevel { return model.GeoCounty }

const paSourceID = "pa_pde_districts"

// Column geometry of the long-format sheet.
const (
	paDatatypeCol   = 0
	paSchoolYearCol = 2
	paCountyCol     = 4
	paFirstGradeCol = 5
	paLastGradeCol  = 17 // K plus grades 1-12
)

func (p *Pennsylvania) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	if raw.Format != model.FormatExcel {
		return nil, &UnsupportedFormatError{Extractor: p.Name(), Format: raw.Format}
	}

	sheet, err := fetcher.ReadXLSXSheet(raw.Path, fetcher.XLSXOptions{SheetName: "Enrollment Projection Data"})
	if err != nil {
		return nil, &ParseError{Extractor: p.Name(), Detail: err.Error()}
	}

	log := zap.L().With(zap.String("extractor", p.Name()))
	res := &Result{}

	type countyAgg struct {
		totals map[int]int
	}
	counties := make(map[string]*countyAgg) // keyed by county name

	for row := 1; row < len(sheet.Rows); row++ {
		if sheet.Cell(row, paDatatypeCol) != "Projection" {
			continue
		}
		county := sheet.Cell(row, paCountyCol)
		year, ok := fallYearOf(sheet.Cell(row, paSchoolYearCol))
		if county == "" || !ok {
			continue
		}

		total := 0
		for col := paFirstGradeCol; col <= paLastGradeCol; col++ {
			if v, ok := sheet.CellInt(row, col); ok {
				total += v
			}
		}
		if err := validatePoint(county, year, total); err != nil {
			res.Rejected = append(res.Rejected, err)
			continue
		}

		agg := counties[county]
		if agg == nil {
			agg = &countyAgg{totals: make(map[int]int)}
			counties[county] = agg
		}
		agg.totals[year] += total
	}

	if len(counties) == 0 {
		return nil, &ParseError{Extractor: p.Name(), Detail: "no projection rows parsed"}
	}

	names := make([]string, 0, len(counties))
	for name := range counties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fips, ok := paCountyFIPS[name]
		if !ok {
			log.Warn("unknown county name", zap.String("county", name))
			continue
		}
		agg := counties[name]
		years := make([]int, 0, len(agg.totals))
		for y := range agg.totals {
			years = append(years, y)
		}
		sort.Ints(years)
		for _, y := range years {
			res.Points = append(res.Points, model.ProjectionPoint{
				GeoID:      fips,
				GeoName:    name + " County, PA",
				GeoLevel:   model.GeoCounty,
				StateFIPS:  "42",
				Year:       y,
				Enrollment: agg.totals[y],
				SourceID:   paSourceID,
				Method:     model.MethodAggregated,
			})
		}
	}
	return res, nil
}
