// Package model defines the core domain types shared across the pipeline.
package model

import (
	"fmt"
	"strings"
)

// GeoLevel identifies the geographic granularity of a data source or point.
type GeoLevel string

const (
	GeoState        GeoLevel = "state"
	GeoCounty       GeoLevel = "county"
	GeoDistrict     GeoLevel = "district"
	GeoMunicipality GeoLevel = "municipality"
	GeoSchool       GeoLevel = "school"
)

// ParseGeoLevel converts a string into a GeoLevel.
func ParseGeoLevel(s string) (GeoLevel, error) {
	switch GeoLevel(strings.ToLower(strings.TrimSpace(s))) {
	case GeoState:
		return GeoState, nil
	case GeoCounty:
		return GeoCounty, nil
	case GeoDistrict:
		return GeoDistrict, nil
	case GeoMunicipality:
		return GeoMunicipality, nil
	case GeoSchool:
		return GeoSchool, nil
	default:
		return "", fmt.Errorf("unknown geo level %q", s)
	}
}

// Finer reports whether l is a finer granularity than other.
// Ordering: school < district < municipality < county < state.
func (l GeoLevel) Finer(other GeoLevel) bool {
	return l.rank() < other.rank()
}

func (l GeoLevel) rank() int {
	switch l {
	case GeoSchool:
		return 0
	case GeoDistrict:
		return 1
	case GeoMunicipality:
		return 2
	case GeoCounty:
		return 3
	case GeoState:
		return 4
	default:
		return 5
	}
}

// NormalizeStateFIPS zero-pads a state FIPS code to 2 digits.
func NormalizeStateFIPS(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if len(code) == 1 {
		return "0" + code
	}
	return code
}

// NormalizeCountyFIPS zero-pads a county FIPS suffix to 3 digits.
func NormalizeCountyFIPS(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for len(code) < 3 {
		code = "0" + code
	}
	return code
}

// CombineFIPS joins state and county codes into a 5-digit county FIPS.
func CombineFIPS(state, county string) string {
	s := NormalizeStateFIPS(state)
	c := NormalizeCountyFIPS(county)
	if s == "" || c == "" {
		return ""
	}
	return s + c
}

// StateOfCounty returns the 2-digit state FIPS prefix of a 5-digit county FIPS.
func StateOfCounty(countyFIPS string) string {
	if len(countyFIPS) < 2 {
		return ""
	}
	return countyFIPS[:2]
}
