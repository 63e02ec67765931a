// Package baseline builds per-state NCES enrollment series covering every
// year from 2022 through 2050. NCES publishes anchors for 2022-2025 and 2031;
// the gap years are interpolated and the tail extrapolated from the
// 2025-2031 trend.
package baseline

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

// SourceID tags every baseline-derived projection point.
const SourceID = "nces_203_20"

// AnchorRow is one raw NCES table row.
type AnchorRow struct {
	Abbr       string
	Year       int
	Enrollment int
}

// MissingAnchorError reports a state whose NCES series lacks an anchor year
// required for interpolation. Fatal for that state's baseline only.
type MissingAnchorError struct {
	Abbr string
	Year int
}

func (e *MissingAnchorError) Error() string {
	return fmt.Sprintf("baseline: state %s missing anchor year %d", e.Abbr, e.Year)
}

// ParseCSV reads NCES anchor rows from a CSV stream with header
// (abbr, year, enrollment).
func ParseCSV(ctx context.Context, r io.Reader) ([]AnchorRow, error) {
	_, rows, err := fetcher.ReadCSV(ctx, r, fetcher.CSVOptions{HasHeader: true, TrimSpace: true})
	if err != nil {
		return nil, eris.Wrap(err, "baseline: read anchor csv")
	}

	out := make([]AnchorRow, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, eris.Errorf("baseline: anchor row %d has %d fields, want 3", i+1, len(row))
		}
		year, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, eris.Wrapf(err, "baseline: anchor row %d year", i+1)
		}
		enrollment, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, eris.Wrapf(err, "baseline: anchor row %d enrollment", i+1)
		}
		out = append(out, AnchorRow{Abbr: row[0], Year: year, Enrollment: enrollment})
	}
	return out, nil
}

// Build assembles complete BaselineSeries per state from anchor rows.
// States missing a required anchor are returned in errs keyed by abbr and
// omitted from the series map; other states are unaffected.
func Build(rows []AnchorRow) (map[string]*model.BaselineSeries, map[string]error) {
	byState := make(map[string]map[int]int)
	for _, row := range rows {
		if byState[row.Abbr] == nil {
			byState[row.Abbr] = make(map[int]int)
		}
		byState[row.Abbr][row.Year] = row.Enrollment
	}

	log := zap.L().With(zap.String("component", "baseline"))
	series := make(map[string]*model.BaselineSeries, len(byState))
	errs := make(map[string]error)

	for abbr, anchors := range byState {
		s, err := buildState(abbr, anchors)
		if err != nil {
			log.Warn("baseline incomplete", zap.String("state", abbr), zap.Error(err))
			errs[abbr] = err
			continue
		}
		series[abbr] = s
	}

	log.Info("baseline built",
		zap.Int("states", len(series)),
		zap.Int("failed", len(errs)),
	)
	return series, errs
}

func buildState(abbr string, anchors map[int]int) (*model.BaselineSeries, error) {
	v0, ok0 := anchors[model.AnchorNear]
	v1, ok1 := anchors[model.AnchorFar]
	if !ok0 {
		return nil, &MissingAnchorError{Abbr: abbr, Year: model.AnchorNear}
	}
	if !ok1 {
		return nil, &MissingAnchorError{Abbr: abbr, Year: model.AnchorFar}
	}

	years := make(map[int]int, model.YearLast-model.YearFirst+1)
	anchorYears := make([]int, 0, len(anchors))
	for y, v := range anchors {
		years[y] = v
		anchorYears = append(anchorYears, y)
	}
	sort.Ints(anchorYears)

	// Interpolate the gap between the two bounding anchors.
	for y := model.InterpFirstYear; y <= model.InterpLastYear; y++ {
		years[y] = interpolate(v0, v1, model.AnchorNear, model.AnchorFar, y)
	}

	// Extrapolate beyond the far anchor from the anchor-to-anchor slope.
	slope := float64(v1-v0) / float64(model.AnchorFar-model.AnchorNear)
	for y := model.AnchorFar + 1; y <= model.YearLast; y++ {
		v := int(math.Round(float64(v1) + slope*float64(y-model.AnchorFar)))
		if v < 0 {
			v = 0
		}
		years[y] = v
	}

	// NCES normally publishes 2022-2024 actuals; when a vintage omits one,
	// extend the near-anchor trend backwards so the series stays complete.
	for y := model.YearFirst; y < model.AnchorNear; y++ {
		if _, ok := years[y]; ok {
			continue
		}
		v := int(math.Round(float64(v0) + slope*float64(y-model.AnchorNear)))
		if v < 0 {
			v = 0
		}
		years[y] = v
	}

	info, ok := model.StateByAbbr(abbr)
	fips := ""
	if ok {
		fips = info.FIPS
	}
	return &model.BaselineSeries{
		Abbr:    abbr,
		FIPS:    fips,
		Years:   years,
		Anchors: anchorYears,
	}, nil
}

func interpolate(v0, v1, y0, y1, y int) int {
	frac := float64(y-y0) / float64(y1-y0)
	return int(math.Round(float64(v0) + frac*float64(v1-v0)))
}

// Slope returns the annual change used for extrapolation beyond the far
// anchor year.
func Slope(s *model.BaselineSeries) float64 {
	v0 := s.Years[model.AnchorNear]
	v1 := s.Years[model.AnchorFar]
	return float64(v1-v0) / float64(model.AnchorFar-model.AnchorNear)
}
