// Package extract converts each state's native-format projection payload
// into normalized projection points at the source's own geography level.
// One Extractor per direct-data state; everything else routes through
// NoDirect and is covered by baseline allocation downstream.
package extract

import (
	"context"
	"fmt"

	"github.com/sells-group/enrollment-cli/internal/model"
)

// Year sanity window for parsed rows. The lower bound catches mislabeled
// historical columns; the upper bound is the projection window itself, so
// rows beyond it never become cells downstream.
const (
	minPlausibleYear = 2020
	maxPlausibleYear = model.YearLast
)

// RawSource is an opaque handle to a pre-staged state payload.
type RawSource struct {
	Path   string
	Format model.Format
}

// Result is the outcome of one state's extraction. Rejected holds
// per-record validation failures that degraded but did not abort the state.
type Result struct {
	Points   []model.ProjectionPoint
	Rejected []error
}

// Extractor converts one state's raw data into projection points.
type Extractor interface {
	// Name identifies the extractor (e.g. "ca_dof").
	Name() string

	// StateFIPS returns the state this extractor serves.
	StateFIPS() string

	// GeoLevel returns the native granularity of the extracted points.
	GeoLevel() model.GeoLevel

	// Extract parses the payload. A nil error with an empty point set means
	// the state has no direct data and falls back to baseline allocation.
	Extract(ctx context.Context, raw RawSource) (*Result, error)
}

// UnsupportedFormatError reports a payload format the extractor cannot read.
type UnsupportedFormatError struct {
	Extractor string
	Format    model.Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("extract: %s cannot read format %q", e.Extractor, e.Format)
}

// ParseError reports a structurally unreadable payload. The state falls back
// to baseline allocation and is logged as degraded.
type ParseError struct {
	Extractor string
	Detail    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extract: %s: %s", e.Extractor, e.Detail)
}

// InvalidValueError reports a parsed value violating domain constraints.
// The record is rejected; the state is marked partially degraded.
type InvalidValueError struct {
	Geo   string
	Year  int
	Value int
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("extract: %s year %d has invalid enrollment %d", e.Geo, e.Year, e.Value)
}

// validatePoint checks domain constraints on a parsed record.
func validatePoint(geo string, year, enrollment int) error {
	if enrollment < 0 || year < minPlausibleYear || year > maxPlausibleYear {
		return &InvalidValueError{Geo: geo, Year: year, Value: enrollment}
	}
	return nil
}
