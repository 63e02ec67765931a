package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enrollment-cli/internal/model"
)

type sheetFixture struct {
	name string
	rows [][]string
}

func writeWorkbook(t *testing.T, sheets ...sheetFixture) string {
	t.Helper()

	f := xlsx.NewFile()
	for _, sf := range sheets {
		sh, err := f.AddSheet(sf.name)
		require.NoError(t, err)
		for _, row := range sf.rows {
			r := sh.AddRow()
			for _, cell := range row {
				r.AddCell().SetString(cell)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func pointFor(points []model.ProjectionPoint, geoID string, year int) (model.ProjectionPoint, bool) {
	for _, p := range points {
		if p.GeoID == geoID && p.Year == year {
			return p, true
		}
	}
	return model.ProjectionPoint{}, false
}

func TestCalifornia_Extract(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "County Enrollment Projection",
		rows: [][]string{
			{"K-12 Enrollment Projections"},
			{""},
			{"County", "2025-26", "2026-27"},
			{"Alameda", "150,000", "149000"},
			{"California", "5000000", "4950000"},
			{"Yuba", "12000", "12100"},
		},
	})

	res, err := NewCalifornia().Extract(context.Background(), RawSource{Path: path, Format: model.FormatExcel})
	require.NoError(t, err)
	require.Len(t, res.Points, 4)
	assert.Empty(t, res.Rejected)

	p, ok := pointFor(res.Points, "06001", 2025)
	require.True(t, ok)
	assert.Equal(t, 150000, p.Enrollment)
	assert.Equal(t, model.GeoCounty, p.GeoLevel)
	assert.Equal(t, model.MethodDirect, p.Method)
	assert.Equal(t, "06", p.StateFIPS)

	// The statewide row must not leak into county points.
	for _, p := range res.Points {
		assert.NotEqual(t, "California", p.GeoName)
	}
}

func TestCalifornia_RejectsNegative(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "County Enrollment Projection",
		rows: [][]string{
			{""},
			{""},
			{"County", "2025-26"},
			{"Alameda", "-5"},
			{"Yuba", "12000"},
		},
	})

	res, err := NewCalifornia().Extract(context.Background(), RawSource{Path: path, Format: model.FormatExcel})
	require.NoError(t, err)
	require.Len(t, res.Points, 1)
	require.Len(t, res.Rejected, 1)

	var ive *InvalidValueError
	require.ErrorAs(t, res.Rejected[0], &ive)
	assert.Equal(t, "Alameda", ive.Geo)
	assert.Equal(t, -5, ive.Value)
}

func TestCalifornia_WrongFormat(t *testing.T) {
	_, err := NewCalifornia().Extract(context.Background(), RawSource{Path: "x.csv", Format: model.FormatCSV})

	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, model.FormatCSV, ufe.Format)
}

func TestCalifornia_MissingSheet(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{name: "Wrong Sheet", rows: [][]string{{"x"}}})

	_, err := NewCalifornia().Extract(context.Background(), RawSource{Path: path, Format: model.FormatExcel})

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestIowa_AggregatesDistrictsToCounties(t *testing.T) {
	header := make([]string, iaLastYearCol+1)
	header[iaCountyCode] = "County"
	header[iaCountyName] = "County Name"
	for col, fall := iaFirstYearCol, 2020; col <= iaLastYearCol; col, fall = col+1, fall+1 {
		header[col] = strconv.Itoa(fall) + "-" + strconv.Itoa(fall+1)[2:]
	}

	districtRow := func(code, name, v string) []string {
		row := make([]string, iaLastYearCol+1)
		row[iaCountyCode] = code
		row[iaCountyName] = name
		for col := iaFirstYearCol; col <= iaLastYearCol; col++ {
			row[col] = v
		}
		return row
	}

	rows := [][]string{
		{"Certified Enrollment Projections"},
		{}, {}, {}, {}, {}, {}, {},
		header,
		districtRow("1", "Adair", "100"),
		districtRow("1", "Adair", "250"),
		districtRow("99", "Wright", "400"),
	}

	path := writeWorkbook(t, sheetFixture{name: "Projections", rows: rows})

	res, err := NewIowa().Extract(context.Background(), RawSource{Path: path, Format: model.FormatExcel})
	require.NoError(t, err)

	// Only projected school years (fall 2025 onward) are kept.
	p, ok := pointFor(res.Points, "19001", 2025)
	require.True(t, ok)
	assert.Equal(t, 350, p.Enrollment)
	assert.Equal(t, model.MethodAggregated, p.Method)

	_, ok = pointFor(res.Points, "19001", 2024)
	assert.False(t, ok)

	// County code 99 maps to the last odd FIPS.
	p, ok = pointFor(res.Points, "19197", 2029)
	require.True(t, ok)
	assert.Equal(t, 400, p.Enrollment)
}

func TestMaryland_SkipsRegionSubtotals(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "Projections",
		rows: [][]string{
			{"Public School Enrollment Projections"},
			{""},
			{"", "Year", "2025", "2030"},
			{"", "MARYLAND", "880000", "860000"},
			{"", "Baltimore Region", "400000", "390000"},
			{"", "Allegany County", "7500", "7200"},
			{"", "Baltimore City", "75000", "72000"},
		},
	})

	res, err := NewMaryland().Extract(context.Background(), RawSource{Path: path, Format: model.FormatExcel})
	require.NoError(t, err)
	require.Len(t, res.Points, 4)

	p, ok := pointFor(res.Points, "24001", 2025)
	require.True(t, ok)
	assert.Equal(t, 7500, p.Enrollment)
	assert.Equal(t, model.MethodDirect, p.Method)

	p, ok = pointFor(res.Points, "24510", 2030)
	require.True(t, ok)
	assert.Equal(t, 72000, p.Enrollment)
}

func TestPennsylvania_ProjectionRowsOnly(t *testing.T) {
	grades := func(v string) []string {
		out := make([]string, paLastGradeCol-paFirstGradeCol+1)
		for i := range out {
			out[i] = v
		}
		return out
	}
	row := func(datatype, schoolYear, county string, grade []string) []string {
		r := []string{datatype, "100000000", schoolYear, "Some SD", county}
		return append(r, grade...)
	}

	path := writeWorkbook(t, sheetFixture{
		name: "Enrollment Projection Data",
		rows: [][]string{
			{"Datatype", "AUN", "School Year", "LEA Name", "County"},
			row("Actual", "2024-25", "Adams", grades("10")),
			row("Projection", "2025-26", "Adams", grades("10")),
			row("Projection", "2025-26", "Adams", grades("20")),
			row("Projection", "2025-26", "York", grades("5")),
		},
	})

	res, err := NewPennsylvania().Extract(context.Background(), RawSource{Path: path, Format: model.FormatExcel})
	require.NoError(t, err)

	// 13 grade columns summed, two Adams districts aggregated.
	p, ok := pointFor(res.Points, "42001", 2025)
	require.True(t, ok)
	assert.Equal(t, 13*10+13*20, p.Enrollment)
	assert.Equal(t, model.MethodAggregated, p.Method)

	p, ok = pointFor(res.Points, "42133", 2025)
	require.True(t, ok)
	assert.Equal(t, 13*5, p.Enrollment)

	_, ok = pointFor(res.Points, "42001", 2024)
	assert.False(t, ok, "actual rows must be excluded")
}

func TestTexas_SumsADAStatewide(t *testing.T) {
	path := writeWorkbook(t, sheetFixture{
		name: "ADA Projections",
		rows: [][]string{
			{"Year", "District", "Name", "ADA"},
			{"2026", "101", "Dist A", "1000.4"},
			{"2026", "102", "Dist B", "2000.4"},
			{"2027", "101", "Dist A", "990.0"},
		},
	})

	res, err := NewTexas().Extract(context.Background(), RawSource{Path: path, Format: model.FormatExcel})
	require.NoError(t, err)
	require.Len(t, res.Points, 2)

	p, ok := pointFor(res.Points, "48", 2026)
	require.True(t, ok)
	assert.Equal(t, 3001, p.Enrollment)
	assert.Equal(t, model.GeoState, p.GeoLevel)
	assert.Equal(t, model.MethodAggregated, p.Method)
}

func TestVirginia_StateTotalPerSheet(t *testing.T) {
	divisions := [][]string{
		{"School Enrollment Projections"},
		{"Division Name", "Division No.", "School Year", "K-12 Total"},
		{"Accomack County", "001", "2025-26", "4500"},
		{"Virginia", "", "2025-26", "1230000"},
	}
	second := [][]string{
		{"School Enrollment Projections"},
		{"Division Name", "Division No.", "School Year", "K-12 Total"},
		{"Virginia", "", "2026-27", "1221000"},
	}

	path := writeWorkbook(t,
		sheetFixture{name: "2025-26", rows: divisions},
		sheetFixture{name: "2026-27", rows: second},
	)

	res, err := NewVirginia().Extract(context.Background(), RawSource{Path: path, Format: model.FormatExcel})
	require.NoError(t, err)
	require.Len(t, res.Points, 2)

	p, ok := pointFor(res.Points, "51", 2025)
	require.True(t, ok)
	assert.Equal(t, 1230000, p.Enrollment)
	assert.Equal(t, model.MethodDirect, p.Method)

	p, ok = pointFor(res.Points, "51", 2026)
	require.True(t, ok)
	assert.Equal(t, 1221000, p.Enrollment)
}

func TestColorado_PopulationProxy(t *testing.T) {
	path := writeCSV(t, `State Demography Office Vintage 2024
year,age,totalpopulation
2022,5,870900
2022,4,9999
2023,10,800000
2061,6,123
`)

	res, err := NewColorado().Extract(context.Background(), RawSource{Path: path, Format: model.FormatCSV})
	require.NoError(t, err)
	require.Len(t, res.Points, 2)

	// 2022 school-age population equals the NCES anchor, so the ratio is 1.
	p, ok := pointFor(res.Points, "08", 2022)
	require.True(t, ok)
	assert.Equal(t, 870900, p.Enrollment)
	assert.Equal(t, model.MethodPopulationProxy, p.Method)
	assert.Equal(t, model.GeoState, p.GeoLevel)

	p, ok = pointFor(res.Points, "08", 2023)
	require.True(t, ok)
	assert.Equal(t, 800000, p.Enrollment)
}

func TestColorado_ScalesByRatio(t *testing.T) {
	path := writeCSV(t, `banner
year,age,totalpopulation
2022,5,500000
2022,10,370900
2025,7,400000
`)

	res, err := NewColorado().Extract(context.Background(), RawSource{Path: path, Format: model.FormatCSV})
	require.NoError(t, err)

	// ratio = 870900 / 870900 = 1 again, split across two age rows.
	p, ok := pointFor(res.Points, "08", 2025)
	require.True(t, ok)
	assert.Equal(t, 400000, p.Enrollment)
}

func TestColorado_MissingAnchorYear(t *testing.T) {
	path := writeCSV(t, `banner
year,age,totalpopulation
2025,7,400000
`)

	_, err := NewColorado().Extract(context.Background(), RawSource{Path: path, Format: model.FormatCSV})

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestNorthCarolina_TotalRowsOnly(t *testing.T) {
	header := "county,year,sex,age5,age6,age7,age8,age9,age10,age11,age12,age13,age14,age15,age16,age17"
	zeros := ",0,0,0,0,0,0,0,0,0,0,0,0"
	path := writeCSV(t, header+`
Wake,2022,Total,1531800`+zeros+`
Wake,2022,Male,700000`+zeros+`
Wake,2025,Total,1500000`+zeros+`
`)

	res, err := NewNorthCarolina().Extract(context.Background(), RawSource{Path: path, Format: model.FormatCSV})
	require.NoError(t, err)
	require.Len(t, res.Points, 2)

	p, ok := pointFor(res.Points, "37", 2022)
	require.True(t, ok)
	assert.Equal(t, 1531800, p.Enrollment)
	assert.Equal(t, model.MethodPopulationProxy, p.Method)

	p, ok = pointFor(res.Points, "37", 2025)
	require.True(t, ok)
	assert.Equal(t, 1500000, p.Enrollment)
}

func TestRegistry_ForState(t *testing.T) {
	r := NewRegistry()

	e := r.ForState(model.SourceRecord{FIPS: "06"})
	assert.Equal(t, "ca_dof", e.Name())

	e = r.ForState(model.SourceRecord{FIPS: "02"})
	assert.Equal(t, "no_direct", e.Name())
	assert.Equal(t, "02", e.StateFIPS())

	res, err := e.Extract(context.Background(), RawSource{})
	require.NoError(t, err)
	assert.Empty(t, res.Points)
}

func TestRegistry_Direct(t *testing.T) {
	direct := NewRegistry().Direct()
	require.Len(t, direct, 8)

	seen := make(map[string]bool)
	for _, e := range direct {
		assert.False(t, seen[e.StateFIPS()])
		seen[e.StateFIPS()] = true
	}
}

func TestFallYearOf(t *testing.T) {
	cases := []struct {
		label string
		year  int
		ok    bool
	}{
		{"2024-25", 2024, true},
		{"2025 - 2026", 2025, true},
		{"  2031-32  ", 2031, true},
		{"2025", 0, false},
		{"County", 0, false},
		{"", 0, false},
		{"1999-00", 0, false},
	}
	for _, tc := range cases {
		year, ok := fallYearOf(tc.label)
		assert.Equal(t, tc.ok, ok, tc.label)
		if tc.ok {
			assert.Equal(t, tc.year, year, tc.label)
		}
	}
}

func TestValidatePoint(t *testing.T) {
	assert.NoError(t, validatePoint("x", 2025, 100))
	assert.NoError(t, validatePoint("x", 2025, 0))
	assert.NoError(t, validatePoint("x", 2020, 100))
	assert.NoError(t, validatePoint("x", model.YearLast, 100))

	err := validatePoint("x", 2025, -1)
	var ive *InvalidValueError
	require.True(t, errors.As(err, &ive))

	assert.Error(t, validatePoint("x", 1999, 100))
	assert.Error(t, validatePoint("x", 2019, 100))

	// Beyond the projection window rejects the record outright.
	err = validatePoint("x", 2055, 100)
	require.True(t, errors.As(err, &ive))
	assert.Equal(t, 2055, ive.Year)
	assert.Error(t, validatePoint("x", model.YearLast+1, 100))
}
