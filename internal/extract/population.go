package extract

import (
	"context"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// School-age window used for the population proxy.
const (
	proxyAgeMin = 5
	proxyAgeMax = 17
)

// 2022 NCES enrollment anchors used to convert school-age population into
// an enrollment-equivalent series.
const (
	coNCES2022 = 870900
	ncNCES2022 = 1531800
)

// populationProxy converts statewide school-age population totals per year
// into enrollment-equivalent projection points, scaled by the ratio of the
// state's 2022 NCES enrollment to its 2022 school-age population.
func populationProxy(state model.StateInfo, sourceID string, nces2022 int, totals map[int]int) (*Result, error) {
	pop2022, ok := totals[2022]
	if !ok || pop2022 <= 0 {
		return nil, &ParseError{Extractor: sourceID, Detail: "no 2022 school-age population to anchor the enrollment ratio"}
	}
	ratio := float64(nces2022) / float64(pop2022)

	zap.L().Info("population proxy ratio",
		zap.String("state", state.Abbr),
		zap.Float64("ratio", ratio),
	)

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	res := &Result{}
	for _, y := range years {
		res.Points = append(res.Points, model.ProjectionPoint{
			GeoID:      state.FIPS,
			GeoName:    state.Name,
			GeoLevel:   model.GeoState,
			StateFIPS:  state.FIPS,
			Year:       y,
			Enrollment: int(math.Round(float64(totals[y]) * ratio)),
			SourceID:   sourceID,
			Method:     model.MethodPopulationProxy,
		})
	}
	return res, nil
}

// Colorado reads the DOLA county population-by-age CSV (one row per
// county/year/age, vintage banner on the first line) and builds a statewide
// school-age proxy series.
type Colorado struct{}

// NewColorado creates the Colorado DOLA extractor.
func NewColorado() *Colorado { return &Colorado{} }

func (c *Colorado) Name() string             { return "co_dola" }
func (c *Colorado) StateFIPS() string        { return "08" }
func (c *Colorado) GeoLevel() model.GeoLevel { return model.GeoState }

func (c *Colorado) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	if raw.Format != model.FormatCSV {
		return nil, &UnsupportedFormatError{Extractor: c.Name(), Format: raw.Format}
	}

	f, err := os.Open(raw.Path)
	if err != nil {
		return nil, &ParseError{Extractor: c.Name(), Detail: err.Error()}
	}
	defer f.Close()

	header, rows, err := fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{
		SkipRows:  1, // vintage banner
		HasHeader: true,
		TrimSpace: true,
	})
	if err != nil {
		return nil, &ParseError{Extractor: c.Name(), Detail: err.Error()}
	}

	yearIdx := columnIndex(header, "year")
	ageIdx := columnIndex(header, "age")
	popIdx := columnIndex(header, "totalpopulation")
	if yearIdx < 0 || ageIdx < 0 || popIdx < 0 {
		return nil, &ParseError{Extractor: c.Name(), Detail: "missing year/age/totalpopulation columns"}
	}

	totals := make(map[int]int)
	for _, row := range rows {
		year := atoiAt(row, yearIdx)
		age := atoiAt(row, ageIdx)
		pop := atoiAt(row, popIdx)
		if year < model.YearFirst || year > model.YearLast {
			continue
		}
		if age < proxyAgeMin || age > proxyAgeMax {
			continue
		}
		totals[year] += pop
	}

	info := model.States["08"]
	return populationProxy(info, c.Name(), coNCES2022, totals)
}

// NorthCarolina reads the OSBM county population-by-age CSV (wide format:
// one row per county/year/sex with age0...age100 columns, "Total" sex rows
// used) and builds a statewide school-age proxy series.
type NorthCarolina struct{}

// NewNorthCarolina creates the NC OSBM extractor.
func NewNorthCarolina() *NorthCarolina { return &NorthCarolina{} }

func (n *NorthCarolina) Name() string             { return "nc_osbm" }
func (n *NorthCarolina) StateFIPS() string        { return "37" }
func (n *NorthCarolina) GeoLevel() model.GeoLevel { return model.GeoState }

func (n *NorthCarolina) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	if raw.Format != model.FormatCSV {
		return nil, &UnsupportedFormatError{Extractor: n.Name(), Format: raw.Format}
	}

	f, err := os.Open(raw.Path)
	if err != nil {
		return nil, &ParseError{Extractor: n.Name(), Detail: err.Error()}
	}
	defer f.Close()

	header, rows, err := fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{
		HasHeader: true,
		TrimSpace: true,
	})
	if err != nil {
		return nil, &ParseError{Extractor: n.Name(), Detail: err.Error()}
	}

	yearIdx := columnIndex(header, "year")
	sexIdx := columnIndex(header, "sex")
	if yearIdx < 0 || sexIdx < 0 {
		return nil, &ParseError{Extractor: n.Name(), Detail: "missing year/sex columns"}
	}
	ageIdx := make([]int, 0, proxyAgeMax-proxyAgeMin+1)
	for age := proxyAgeMin; age <= proxyAgeMax; age++ {
		idx := columnIndex(header, "age"+strconv.Itoa(age))
		if idx < 0 {
			return nil, &ParseError{Extractor: n.Name(), Detail: "missing age" + strconv.Itoa(age) + " column"}
		}
		ageIdx = append(ageIdx, idx)
	}

	totals := make(map[int]int)
	for _, row := range rows {
		if !strings.EqualFold(valueAt(row, sexIdx), "Total") {
			continue
		}
		year := atoiAt(row, yearIdx)
		if year < model.YearFirst || year > model.YearLast {
			continue
		}
		for _, idx := range ageIdx {
			totals[year] += atoiAt(row, idx)
		}
	}

	info := model.States["37"]
	return populationProxy(info, n.Name(), ncNCES2022, totals)
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func valueAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func atoiAt(row []string, idx int) int {
	v, err := strconv.Atoi(valueAt(row, idx))
	if err != nil {
		return 0
	}
	return v
}
