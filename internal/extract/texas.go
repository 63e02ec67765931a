package extract

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// Texas reads the TEA attendance projection workbook: one row per district
// and year with an ADA column, aggregated to statewide totals. ADA is a
// funding metric, not a headcount, but it is the only forward series TEA
// publishes.
type Texas struct{}

// NewTexas creates the Texas Education Agency extractor.
func NewTexas() *Texas { return &Texas{} }

func (t *Texas) Name() string             { return "tx_tea" }
func (t *Texas) StateFIPS() string        { return "48" }
func (t *Texas) GeoLevel() model.GeoLevel { return model.GeoState }

const txSourceID = "tx_tea_ada"

const (
	txYearCol = 0
	txADACol  = 3
)

func (t *Texas) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	if raw.Format != model.FormatExcel {
		return nil, &UnsupportedFormatError{Extractor: t.Name(), Format: raw.Format}
	}

	sheet, err := fetcher.ReadXLSXSheet(raw.Path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, &ParseError{Extractor: t.Name(), Detail: err.Error()}
	}

	res := &Result{}
	totals := make(map[int]float64)
	for row := 1; row < len(sheet.Rows); row++ {
		yearStr := sheet.Cell(row, txYearCol)
		ada, ok := sheet.CellFloat(row, txADACol)
		if yearStr == "" || !ok {
			continue
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			continue
		}
		if vErr := validatePoint("Texas", year, int(ada)); vErr != nil {
			res.Rejected = append(res.Rejected, vErr)
			continue
		}
		totals[year] += ada
	}

	if len(totals) == 0 {
		return nil, &ParseError{Extractor: t.Name(), Detail: "no district ADA rows parsed"}
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		res.Points = append(res.Points, model.ProjectionPoint{
			GeoID:      "48",
			GeoName:    "Texas",
			GeoLevel:   model.GeoState,
			StateFIPS:  "48",
			Year:       y,
			Enrollment: int(math.Round(totals[y])),
			SourceID:   txSourceID,
			Method:     model.MethodAggregated,
		})
	}
	return res, nil
}
