// Package acs loads American Community Survey school-age population tables
// and turns them into county allocation weights. States without direct
// projection data get their NCES state totals distributed across counties
// by these shares.
package acs

import (
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrollment-cli/internal/model"
)

// WeightTolerance is the allowed deviation of a state's share sum from 1.0.
const WeightTolerance = 1e-6

// County is one county's ACS school-age population estimate.
type County struct {
	FIPS      string `yaml:"fips"`
	Name      string `yaml:"name"`
	SchoolAge int    `yaml:"school_age"`
}

// AggregationMismatchError reports county weights that do not sum to 1.0
// within tolerance. Fatal for that state's sub-geography reconciliation.
type AggregationMismatchError struct {
	StateFIPS string
	Sum       float64
}

func (e *AggregationMismatchError) Error() string {
	return fmt.Sprintf("acs: state %s county weights sum to %.9f, want 1.0", e.StateFIPS, e.Sum)
}

// Table holds per-state county share maps derived from ACS populations.
type Table struct {
	shares map[string]map[string]float64 // state FIPS -> county FIPS -> weight
	names  map[string]string             // county FIPS -> display name
}

// LoadFile reads an ACS county table from a YAML file of the form
// counties: [{fips, name, school_age}, ...].
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "acs: read %s", path)
	}
	return Parse(data)
}

// Parse builds a share table from raw YAML.
func Parse(data []byte) (*Table, error) {
	var doc struct {
		Counties []County `yaml:"counties"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "acs: parse counties")
	}
	return New(doc.Counties)
}

// New builds a share table from county records.
func New(counties []County) (*Table, error) {
	pops := make(map[string]map[string]int)
	names := make(map[string]string, len(counties))

	for _, c := range counties {
		if len(c.FIPS) != 5 {
			return nil, eris.Errorf("acs: county FIPS %q is not 5 digits", c.FIPS)
		}
		if c.SchoolAge < 0 {
			return nil, eris.Errorf("acs: county %s has negative school-age population %d", c.FIPS, c.SchoolAge)
		}
		state := model.StateOfCounty(c.FIPS)
		if pops[state] == nil {
			pops[state] = make(map[string]int)
		}
		pops[state][c.FIPS] = c.SchoolAge
		names[c.FIPS] = c.Name
	}

	shares := make(map[string]map[string]float64, len(pops))
	for state, counties := range pops {
		total := 0
		for _, pop := range counties {
			total += pop
		}
		if total == 0 {
			return nil, eris.Errorf("acs: state %s has zero school-age population", state)
		}
		m := make(map[string]float64, len(counties))
		for fips, pop := range counties {
			m[fips] = float64(pop) / float64(total)
		}
		shares[state] = m
	}

	return &Table{shares: shares, names: names}, nil
}

// Shares returns the county weight map for a state, ok=false when the state
// has no ACS rows.
func (t *Table) Shares(stateFIPS string) (map[string]float64, bool) {
	m, ok := t.shares[model.NormalizeStateFIPS(stateFIPS)]
	return m, ok
}

// CountyName returns the display name for a county FIPS.
func (t *Table) CountyName(countyFIPS string) string {
	if name, ok := t.names[countyFIPS]; ok {
		return name
	}
	return countyFIPS
}

// CountyFIPSList returns a state's county codes in ascending order.
func (t *Table) CountyFIPSList(stateFIPS string) []string {
	m, ok := t.Shares(stateFIPS)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m))
	for fips := range m {
		out = append(out, fips)
	}
	sort.Strings(out)
	return out
}

// Validate checks that a state's weights sum to 1.0 within tolerance.
func (t *Table) Validate(stateFIPS string) error {
	m, ok := t.Shares(stateFIPS)
	if !ok {
		return eris.Errorf("acs: no county shares for state %s", stateFIPS)
	}
	sum := 0.0
	for _, w := range m {
		sum += w
	}
	if sum < 1.0-WeightTolerance || sum > 1.0+WeightTolerance {
		return &AggregationMismatchError{StateFIPS: stateFIPS, Sum: sum}
	}
	return nil
}

// ValidateWeights checks an arbitrary weight map against the tolerance.
// Used by the reconciliation engine when callers supply their own shares.
func ValidateWeights(stateFIPS string, weights map[string]float64) error {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum < 1.0-WeightTolerance || sum > 1.0+WeightTolerance {
		return &AggregationMismatchError{StateFIPS: stateFIPS, Sum: sum}
	}
	return nil
}
