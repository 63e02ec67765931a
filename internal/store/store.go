// Package store persists reconciliation runs, projection points, and
// coverage summaries. Two backends: SQLite for local CLI use, Postgres for
// shared deployments.
package store

import (
	"context"

	"github.com/sells-group/enrollment-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the reconciliation pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, states, points int) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	LatestRun(ctx context.Context) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Projections
	SaveProjections(ctx context.Context, runID string, points []model.ProjectionPoint) error
	LatestProjections(ctx context.Context, stateFIPS string, level model.GeoLevel) ([]model.ProjectionPoint, error)

	// Coverage
	SaveCoverage(ctx context.Context, runID string, entries []model.CoverageEntry) error
	LatestCoverage(ctx context.Context) ([]model.CoverageEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
