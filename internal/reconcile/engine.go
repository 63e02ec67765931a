package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrollment-cli/internal/acs"
	"github.com/sells-group/enrollment-cli/internal/baseline"
	"github.com/sells-group/enrollment-cli/internal/extract"
	"github.com/sells-group/enrollment-cli/internal/model"
	"github.com/sells-group/enrollment-cli/internal/registry"
)

// Options tunes a reconciliation run.
type Options struct {
	// Workers bounds concurrent state tasks. Values below 1 mean 1.
	Workers int

	// PreferLevel picks the winning granularity when a state publishes both
	// county and district direct data.
	PreferLevel model.GeoLevel

	// RawFor resolves the staged payload for a source record. Required for
	// states with direct extractors.
	RawFor func(rec model.SourceRecord) extract.RawSource
}

// Engine runs reconciliation across all states: one task per state, bounded
// fan-out, per-state failures isolated from siblings.
type Engine struct {
	reg          *registry.Registry
	extractors   *extract.Registry
	baselines    map[string]*model.BaselineSeries
	baselineErrs map[string]error
	shares       *acs.Table
	opts         Options
}

// NewEngine assembles an engine over pre-built inputs. baselines and
// baselineErrs are keyed by state abbreviation, as produced by baseline.Build.
func NewEngine(
	reg *registry.Registry,
	extractors *extract.Registry,
	baselines map[string]*model.BaselineSeries,
	baselineErrs map[string]error,
	shares *acs.Table,
	opts Options,
) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.PreferLevel == "" {
		opts.PreferLevel = model.GeoCounty
	}
	return &Engine{
		reg:          reg,
		extractors:   extractors,
		baselines:    baselines,
		baselineErrs: baselineErrs,
		shares:       shares,
		opts:         opts,
	}
}

// Run reconciles every registered state. The returned slice is in registry
// (FIPS) order, one result per state, failed states carrying Err.
func (e *Engine) Run(ctx context.Context) []model.StateResult {
	recs := e.reg.All()
	results := make([]model.StateResult, len(recs))

	var completed, degraded, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, rec := range recs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = model.StateResult{
					FIPS: rec.FIPS,
					Abbr: rec.Abbr,
					Err:  eris.Wrap(err, "reconcile: cancelled"),
				}
				failed.Add(1)
				return nil
			}

			res := e.reconcileState(ctx, rec)
			results[i] = res
			switch {
			case res.Err != nil:
				failed.Add(1)
			case res.Coverage.Degraded:
				degraded.Add(1)
				completed.Add(1)
			default:
				completed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait() // tasks report through StateResult.Err

	zap.L().Info("reconciliation finished",
		zap.Int64("completed", completed.Load()),
		zap.Int64("degraded", degraded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

func (e *Engine) reconcileState(ctx context.Context, rec model.SourceRecord) model.StateResult {
	log := zap.L().With(zap.String("state", rec.Abbr))
	res := model.StateResult{FIPS: rec.FIPS, Abbr: rec.Abbr}
	cov := model.CoverageEntry{
		FIPS:   rec.FIPS,
		Abbr:   rec.Abbr,
		Name:   rec.Name,
		Status: rec.Status,
	}

	var layers []Layer
	degrade := func(reason string) {
		cov.Degraded = true
		if cov.DegradedReason == "" {
			cov.DegradedReason = reason
		}
	}

	series := e.baselines[rec.Abbr]
	if series == nil {
		if err := e.baselineErrs[rec.Abbr]; err != nil {
			degrade(fmt.Sprintf("baseline unavailable: %v", err))
		} else {
			degrade("baseline unavailable: state missing from anchor table")
		}
	} else {
		layers = append(layers, &BaselineLayer{Series: series})

		if weights, ok := e.shares.Shares(rec.FIPS); ok {
			if err := acs.ValidateWeights(rec.FIPS, weights); err != nil {
				var mismatch *acs.AggregationMismatchError
				if errors.As(err, &mismatch) {
					log.Warn("county shares rejected", zap.Error(err))
					degrade(fmt.Sprintf("county allocation skipped: %v", err))
				}
			} else {
				layers = append(layers, &AllocationLayer{
					Series:  series,
					Weights: weights,
					NameOf:  e.shares.CountyName,
				})
			}
		}
	}

	extractor := e.extractors.ForState(rec)
	if _, passthrough := extractor.(*extract.NoDirect); !passthrough {
		var raw extract.RawSource
		if e.opts.RawFor != nil {
			raw = e.opts.RawFor(rec)
		}
		extracted, err := extractor.Extract(ctx, raw)
		switch {
		case err != nil:
			log.Warn("direct extraction failed, falling back to allocation",
				zap.String("extractor", extractor.Name()),
				zap.Error(err),
			)
			degrade(fmt.Sprintf("direct extraction failed: %v", err))
		case extracted != nil:
			if len(extracted.Rejected) > 0 {
				log.Warn("records rejected during extraction",
					zap.String("extractor", extractor.Name()),
					zap.Int("rejected", len(extracted.Rejected)),
				)
				degrade(fmt.Sprintf("%d records rejected during extraction", len(extracted.Rejected)))
			}
			if len(extracted.Points) > 0 {
				layers = append(layers, &DirectLayer{
					Extracted: extracted.Points,
					Prefer:    e.opts.PreferLevel,
				})
			}
		}
	}

	res.Points = Merge(layers...)

	if err := checkStateCompleteness(rec.FIPS, res.Points); err != nil {
		if bErr := e.baselineErrs[rec.Abbr]; bErr != nil {
			err = bErr
		}
		res.Err = err
		cov.Degraded = true
		if cov.DegradedReason == "" {
			cov.DegradedReason = err.Error()
		}
		res.Coverage = cov
		return res
	}

	fillCoverageCounts(&cov, res.Points)
	res.Coverage = cov
	return res
}

// checkStateCompleteness verifies one state-level point exists for every
// projection year.
func checkStateCompleteness(stateFIPS string, points []model.ProjectionPoint) error {
	years := make(map[int]bool)
	for _, p := range points {
		if p.GeoID == stateFIPS && p.GeoLevel == model.GeoState {
			years[p.Year] = true
		}
	}
	for y := model.YearFirst; y <= model.YearLast; y++ {
		if !years[y] {
			return eris.Errorf("reconcile: state %s has no value for year %d", stateFIPS, y)
		}
	}
	return nil
}

// directPoint reports whether a point came from extracted source data.
// Baseline anchor years also carry the direct method, so provenance is
// checked through the source ID.
func directPoint(p model.ProjectionPoint) bool {
	if p.SourceID == baseline.SourceID {
		return false
	}
	switch p.Method {
	case model.MethodDirect, model.MethodAggregated, model.MethodPopulationProxy:
		return true
	}
	return false
}

func fillCoverageCounts(cov *model.CoverageEntry, points []model.ProjectionPoint) {
	directYears := make(map[int]bool)
	allocYears := make(map[int]bool)
	countiesDirect := make(map[string]bool)
	countiesAlloc := make(map[string]bool)

	for _, p := range points {
		switch {
		case directPoint(p):
			directYears[p.Year] = true
			if p.GeoLevel == model.GeoCounty {
				countiesDirect[p.GeoID] = true
			}
		case p.Method == model.MethodAllocated:
			allocYears[p.Year] = true
			if p.GeoLevel == model.GeoCounty {
				countiesAlloc[p.GeoID] = true
			}
		}
	}

	cov.DirectYears = len(directYears)
	cov.AllocatedYears = len(allocYears)
	cov.CountiesDirect = len(countiesDirect)
	cov.CountiesAllocated = len(countiesAlloc)
}
