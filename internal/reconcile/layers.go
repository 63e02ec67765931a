// Package reconcile merges per-state projection layers into one complete
// county/state by year dataset. Layers are ranked: the NCES baseline sits at
// the bottom, ACS county allocation above it, and extracted direct data on
// top. Higher rank overwrites lower; direct cells are never overwritten.
package reconcile

import (
	"math"
	"sort"

	"github.com/sells-group/enrollment-cli/internal/baseline"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// Layer ranks. Merge applies layers in ascending order.
const (
	PriorityBaseline   = 0
	PriorityAllocation = 10
	PriorityDirect     = 20
)

// Layer produces projection points for one state at a fixed rank.
type Layer interface {
	Name() string
	Priority() int
	Points() []model.ProjectionPoint
}

// BaselineLayer emits the state-level NCES series, one point per year.
type BaselineLayer struct {
	Series *model.BaselineSeries
}

func (l *BaselineLayer) Name() string  { return "baseline" }
func (l *BaselineLayer) Priority() int { return PriorityBaseline }

func (l *BaselineLayer) Points() []model.ProjectionPoint {
	info := model.States[l.Series.FIPS]
	out := make([]model.ProjectionPoint, 0, model.YearLast-model.YearFirst+1)
	for year := model.YearFirst; year <= model.YearLast; year++ {
		v, ok := l.Series.Value(year)
		if !ok {
			continue
		}
		out = append(out, model.ProjectionPoint{
			GeoID:      l.Series.FIPS,
			GeoName:    info.Name,
			GeoLevel:   model.GeoState,
			StateFIPS:  l.Series.FIPS,
			Year:       year,
			Enrollment: v,
			SourceID:   baseline.SourceID,
			Method:     l.Series.MethodFor(year),
		})
	}
	return out
}

// AllocationLayer distributes the state baseline across counties by ACS
// school-age shares: alloc(county, year) = baseline(state, year) * weight.
type AllocationLayer struct {
	Series  *model.BaselineSeries
	Weights map[string]float64
	// NameOf resolves a county FIPS to its display name. Optional.
	NameOf func(countyFIPS string) string
}

func (l *AllocationLayer) Name() string  { return "acs_allocation" }
func (l *AllocationLayer) Priority() int { return PriorityAllocation }

func (l *AllocationLayer) Points() []model.ProjectionPoint {
	counties := make([]string, 0, len(l.Weights))
	for fips := range l.Weights {
		counties = append(counties, fips)
	}
	sort.Strings(counties)

	out := make([]model.ProjectionPoint, 0, len(counties)*(model.YearLast-model.YearFirst+1))
	for _, county := range counties {
		name := county
		if l.NameOf != nil {
			name = l.NameOf(county)
		}
		weight := l.Weights[county]
		for year := model.YearFirst; year <= model.YearLast; year++ {
			base, ok := l.Series.Value(year)
			if !ok {
				continue
			}
			out = append(out, model.ProjectionPoint{
				GeoID:      county,
				GeoName:    name,
				GeoLevel:   model.GeoCounty,
				StateFIPS:  l.Series.FIPS,
				Year:       year,
				Enrollment: int(math.Round(float64(base) * weight)),
				SourceID:   baseline.SourceID,
				Method:     model.MethodAllocated,
			})
		}
	}
	return out
}

// DirectLayer carries extracted points. When a state publishes both county
// and district granularity, only the preferred level is kept.
type DirectLayer struct {
	Extracted []model.ProjectionPoint
	Prefer    model.GeoLevel
}

func (l *DirectLayer) Name() string  { return "direct" }
func (l *DirectLayer) Priority() int { return PriorityDirect }

func (l *DirectLayer) Points() []model.ProjectionPoint {
	levels := make(map[model.GeoLevel]bool)
	for _, p := range l.Extracted {
		levels[p.GeoLevel] = true
	}

	keep := l.Extracted
	if levels[model.GeoCounty] && levels[model.GeoDistrict] {
		prefer := l.Prefer
		if prefer != model.GeoCounty && prefer != model.GeoDistrict {
			prefer = model.GeoCounty
		}
		keep = keep[:0:0]
		for _, p := range l.Extracted {
			if p.GeoLevel == model.GeoState || p.GeoLevel == prefer {
				keep = append(keep, p)
			}
		}
	}

	out := make([]model.ProjectionPoint, len(keep))
	copy(out, keep)
	sort.Slice(out, func(i, j int) bool {
		if out[i].GeoID != out[j].GeoID {
			return out[i].GeoID < out[j].GeoID
		}
		return out[i].Year < out[j].Year
	})
	return out
}

type cellKey struct {
	geoID string
	year  int
}

// Merge applies layers in priority order into a (geo, year) keyed grid.
// A cell written by the direct layer is final. Output is sorted by GeoID
// then year, exactly one point per cell.
func Merge(layers ...Layer) []model.ProjectionPoint {
	ordered := make([]Layer, len(layers))
	copy(ordered, layers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	cells := make(map[cellKey]model.ProjectionPoint)
	locked := make(map[cellKey]bool)
	for _, layer := range ordered {
		direct := layer.Priority() >= PriorityDirect
		for _, p := range layer.Points() {
			key := cellKey{geoID: p.GeoID, year: p.Year}
			if locked[key] {
				continue
			}
			cells[key] = p
			if direct {
				locked[key] = true
			}
		}
	}

	out := make([]model.ProjectionPoint, 0, len(cells))
	for _, p := range cells {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GeoID != out[j].GeoID {
			return out[i].GeoID < out[j].GeoID
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// AggregateToState sums every sub-state point per year into a state total.
// Used when a caller needs state rollups from county or district data.
func AggregateToState(stateFIPS string, points []model.ProjectionPoint) []model.ProjectionPoint {
	info := model.States[stateFIPS]
	totals := make(map[int]int)
	var sourceID string
	for _, p := range points {
		if p.StateFIPS != stateFIPS || p.GeoLevel == model.GeoState {
			continue
		}
		totals[p.Year] += p.Enrollment
		sourceID = p.SourceID
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]model.ProjectionPoint, 0, len(years))
	for _, y := range years {
		out = append(out, model.ProjectionPoint{
			GeoID:      stateFIPS,
			GeoName:    info.Name,
			GeoLevel:   model.GeoState,
			StateFIPS:  stateFIPS,
			Year:       y,
			Enrollment: totals[y],
			SourceID:   sourceID,
			Method:     model.MethodAggregated,
		})
	}
	return out
}
