package acs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoCountyTable(t *testing.T) *Table {
	t.Helper()
	table, err := New([]County{
		{FIPS: "32003", Name: "Clark County, NV", SchoolAge: 60000},
		{FIPS: "32031", Name: "Washoe County, NV", SchoolAge: 40000},
	})
	require.NoError(t, err)
	return table
}

func TestShares_Normalized(t *testing.T) {
	table := twoCountyTable(t)

	shares, ok := table.Shares("32")
	require.True(t, ok)
	assert.InDelta(t, 0.6, shares["32003"], 1e-9)
	assert.InDelta(t, 0.4, shares["32031"], 1e-9)

	require.NoError(t, table.Validate("32"))

	_, ok = table.Shares("06")
	assert.False(t, ok)
	assert.Error(t, table.Validate("06"))
}

func TestCountyHelpers(t *testing.T) {
	table := twoCountyTable(t)

	assert.Equal(t, "Clark County, NV", table.CountyName("32003"))
	assert.Equal(t, "99999", table.CountyName("99999"), "unknown county falls back to FIPS")
	assert.Equal(t, []string{"32003", "32031"}, table.CountyFIPSList("32"))
	assert.Nil(t, table.CountyFIPSList("06"))
}

func TestNew_Rejections(t *testing.T) {
	_, err := New([]County{{FIPS: "3203", Name: "bad", SchoolAge: 10}})
	assert.Error(t, err, "short FIPS")

	_, err = New([]County{{FIPS: "32003", Name: "Clark", SchoolAge: -1}})
	assert.Error(t, err, "negative population")

	_, err = New([]County{{FIPS: "32003", Name: "Clark", SchoolAge: 0}})
	assert.Error(t, err, "zero state total")
}

func TestParse(t *testing.T) {
	yaml := `
counties:
  - {fips: "19153", name: "Polk County, IA", school_age: 80000}
  - {fips: "19113", name: "Linn County, IA", school_age: 40000}
`
	table, err := Parse([]byte(yaml))
	require.NoError(t, err)

	shares, ok := table.Shares("19")
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, shares["19153"], 1e-9)

	_, err = Parse([]byte("counties: [broken"))
	assert.Error(t, err)
}

func TestValidateWeights(t *testing.T) {
	require.NoError(t, ValidateWeights("42", map[string]float64{"42001": 0.25, "42003": 0.75}))

	err := ValidateWeights("42", map[string]float64{"42001": 0.25, "42003": 0.70})
	require.Error(t, err)

	var ame *AggregationMismatchError
	require.True(t, errors.As(err, &ame))
	assert.Equal(t, "42", ame.StateFIPS)
	assert.InDelta(t, 0.95, ame.Sum, 1e-9)

	// Within tolerance passes.
	assert.NoError(t, ValidateWeights("42", map[string]float64{"a": 0.5, "b": 0.5 + 5e-7}))
}
