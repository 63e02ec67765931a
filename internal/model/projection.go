package model

// Projection year bounds. Anchors come from the NCES table; everything
// between and beyond is derived.
const (
	YearFirst       = 2022
	YearLast        = 2050
	AnchorNear      = 2025
	AnchorFar       = 2031
	InterpFirstYear = 2026
	InterpLastYear  = 2030
)

// Method records how a projection value was produced.
type Method string

const (
	MethodDirect          Method = "direct"
	MethodInterpolated    Method = "interpolated"
	MethodExtrapolated    Method = "extrapolated"
	MethodAllocated       Method = "allocated"
	MethodAggregated      Method = "aggregated"
	MethodPopulationProxy Method = "population_proxy"
)

// ProjectionPoint is one enrollment value for one geography and year.
// Points are append-only; reconciliation replaces, never mutates.
type ProjectionPoint struct {
	GeoID      string   `json:"geo_id"`
	GeoName    string   `json:"geo_name"`
	GeoLevel   GeoLevel `json:"geo_level"`
	StateFIPS  string   `json:"state_fips"`
	Year       int      `json:"year"`
	Enrollment int      `json:"enrollment"`
	SourceID   string   `json:"source_id"`
	Method     Method   `json:"method"`
}

// BaselineSeries holds one state's NCES projection series with every year
// in [YearFirst, YearLast] populated.
type BaselineSeries struct {
	Abbr    string      `json:"abbr"`
	FIPS    string      `json:"fips"`
	Years   map[int]int `json:"years"`
	Anchors []int       `json:"anchors"`
}

// Value returns the enrollment for a year, with ok=false outside the series.
func (b *BaselineSeries) Value(year int) (int, bool) {
	v, ok := b.Years[year]
	return v, ok
}

// MethodFor reports how the baseline value for a year was produced.
func (b *BaselineSeries) MethodFor(year int) Method {
	for _, a := range b.Anchors {
		if a == year {
			return MethodDirect
		}
	}
	if year > AnchorFar {
		return MethodExtrapolated
	}
	return MethodInterpolated
}
