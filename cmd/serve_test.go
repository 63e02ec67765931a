package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrollment-cli/internal/model"
	"github.com/sells-group/enrollment-cli/internal/store"
)

// stubStore serves canned reads for router tests.
type stubStore struct {
	points   []model.ProjectionPoint
	coverage []model.CoverageEntry
	err      error
	gotFIPS  string
	gotLevel model.GeoLevel
}

func (s *stubStore) CreateRun(ctx context.Context) (*model.Run, error) { return nil, s.err }
func (s *stubStore) CompleteRun(ctx context.Context, runID string, states, points int) error {
	return s.err
}
func (s *stubStore) FailRun(ctx context.Context, runID string, cause error) error { return s.err }
func (s *stubStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	return nil, s.err
}
func (s *stubStore) LatestRun(ctx context.Context) (*model.Run, error) { return nil, s.err }
func (s *stubStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	return nil, s.err
}
func (s *stubStore) SaveProjections(ctx context.Context, runID string, points []model.ProjectionPoint) error {
	return s.err
}
func (s *stubStore) LatestProjections(ctx context.Context, stateFIPS string, level model.GeoLevel) ([]model.ProjectionPoint, error) {
	s.gotFIPS = stateFIPS
	s.gotLevel = level
	return s.points, s.err
}
func (s *stubStore) SaveCoverage(ctx context.Context, runID string, entries []model.CoverageEntry) error {
	return s.err
}
func (s *stubStore) LatestCoverage(ctx context.Context) ([]model.CoverageEntry, error) {
	return s.coverage, s.err
}
func (s *stubStore) Migrate(ctx context.Context) error { return s.err }
func (s *stubStore) Close() error                      { return nil }

func serveGet(t *testing.T, st store.Store, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	newServeRouter(st).ServeHTTP(rec, req)
	return rec
}

func TestServeRouter_Healthz(t *testing.T) {
	rec := serveGet(t, &stubStore{}, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeRouter_Projections(t *testing.T) {
	st := &stubStore{points: []model.ProjectionPoint{
		{GeoID: "06", GeoLevel: model.GeoState, StateFIPS: "06", Year: 2025, Enrollment: 5750000},
	}}

	rec := serveGet(t, st, "/api/projections/06?level=state")
	require.Equal(t, http.StatusOK, rec.Code)

	var points []model.ProjectionPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, 5750000, points[0].Enrollment)
	assert.Equal(t, "06", st.gotFIPS)
	assert.Equal(t, model.GeoState, st.gotLevel)
}

func TestServeRouter_UnknownFIPS(t *testing.T) {
	st := &stubStore{}
	rec := serveGet(t, st, "/api/projections/99")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, st.gotFIPS, "store not queried for an unknown state")
}

func TestServeRouter_Coverage(t *testing.T) {
	st := &stubStore{coverage: []model.CoverageEntry{{FIPS: "06", Abbr: "CA"}}}
	rec := serveGet(t, st, "/api/coverage")

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []model.CoverageEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "CA", entries[0].Abbr)
}

func TestServeRouter_StoreError(t *testing.T) {
	st := &stubStore{err: eris.New("connection lost")}

	rec := serveGet(t, st, "/api/coverage")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serveGet(t, st, "/api/projections/06")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
