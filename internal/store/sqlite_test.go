package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrollment-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testPoints(runFIPS string) []model.ProjectionPoint {
	return []model.ProjectionPoint{
		{GeoID: runFIPS, GeoName: "Arizona", GeoLevel: model.GeoState, StateFIPS: runFIPS, Year: 2025, Enrollment: 1100000, SourceID: "nces_203_20", Method: model.MethodDirect},
		{GeoID: runFIPS + "001", GeoName: "Apache County", GeoLevel: model.GeoCounty, StateFIPS: runFIPS, Year: 2025, Enrollment: 660000, SourceID: "nces_203_20", Method: model.MethodAllocated},
		{GeoID: runFIPS + "003", GeoName: "Cochise County", GeoLevel: model.GeoCounty, StateFIPS: runFIPS, Year: 2025, Enrollment: 440000, SourceID: "nces_203_20", Method: model.MethodAllocated},
	}
}

func TestSQLite_RunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	require.NoError(t, s.CompleteRun(ctx, run.ID, 51, 12345))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, 51, got.States)
	assert.Equal(t, 12345, got.Points)
	require.NotNil(t, got.CompletedAt)
}

func TestSQLite_FailRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, run.ID, eris.New("anchor table unreadable")))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "anchor table unreadable", got.Error)
}

func TestSQLite_CompleteRun_Missing(t *testing.T) {
	s := newTestSQLite(t)
	err := s.CompleteRun(context.Background(), "no-such-run", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ProjectionsRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	points := testPoints("04")
	require.NoError(t, s.SaveProjections(ctx, run.ID, points))
	require.NoError(t, s.CompleteRun(ctx, run.ID, 1, len(points)))

	got, err := s.LatestProjections(ctx, "04", "")
	require.NoError(t, err)
	require.Len(t, got, 3)

	counties, err := s.LatestProjections(ctx, "04", model.GeoCounty)
	require.NoError(t, err)
	require.Len(t, counties, 2)
	assert.Equal(t, "04001", counties[0].GeoID)
	assert.Equal(t, model.MethodAllocated, counties[0].Method)
	assert.Equal(t, 660000, counties[0].Enrollment)
}

func TestSQLite_LatestRunPicksNewestCompleted(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, first.ID, 1, 1))

	second, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, second.ID, eris.New("boom")))

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
}

func TestSQLite_CoverageRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	entries := []model.CoverageEntry{
		{FIPS: "04", Abbr: "AZ", Name: "Arizona", Status: model.StatusPopulationOnly, AllocatedYears: 29, CountiesAllocated: 15},
		{FIPS: "06", Abbr: "CA", Name: "California", Status: model.StatusDownloaded, DirectYears: 10, CountiesDirect: 58, Degraded: true, DegradedReason: "2 records rejected during extraction"},
	}
	require.NoError(t, s.SaveCoverage(ctx, run.ID, entries))
	require.NoError(t, s.CompleteRun(ctx, run.ID, 2, 0))

	got, err := s.LatestCoverage(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[0], got[0])
	assert.Equal(t, entries[1], got[1])
}

func TestSQLite_ListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run, err := s.CreateRun(ctx)
		require.NoError(t, err)
		if i < 2 {
			require.NoError(t, s.CompleteRun(ctx, run.ID, 51, 100))
		}
	}

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusCompleted})
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetRun(context.Background(), "nonexistent")
	require.Error(t, err)
}
