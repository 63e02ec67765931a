package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

func fastFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		RatePerSec: 1000,
	})
}

func TestFetchStagedSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("workbook bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	recs := []model.SourceRecord{
		{FIPS: "06", Abbr: "CA", URL: srv.URL + "/ca.xlsx"},
		{FIPS: "48", Abbr: "TX", URL: srv.URL + "/missing"},
		{FIPS: "19", Abbr: "IA"},                            // staged but no URL
		{FIPS: "02", Abbr: "AK", URL: srv.URL + "/ak.xlsx"}, // URL but no extractor
	}

	fetched, skipped, failures := fetchStagedSources(context.Background(), fastFetcher(), recs, dir)

	assert.Equal(t, 1, fetched)
	assert.Equal(t, 2, skipped)
	require.Len(t, failures, 1)
	assert.Contains(t, failures, "TX")

	data, err := os.ReadFile(filepath.Join(dir, stagedFiles["CA"].name))
	require.NoError(t, err)
	assert.Equal(t, "workbook bytes", string(data))

	// Nothing staged for the failed and skipped states.
	_, err = os.Stat(filepath.Join(dir, stagedFiles["TX"].name))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, stagedFiles["IA"].name))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchStagedSources_NothingToDo(t *testing.T) {
	recs := []model.SourceRecord{
		{FIPS: "56", Abbr: "WY"},
		{FIPS: "30", Abbr: "MT"},
	}

	fetched, skipped, failures := fetchStagedSources(context.Background(), fastFetcher(), recs, t.TempDir())
	assert.Zero(t, fetched)
	assert.Equal(t, 2, skipped)
	assert.Empty(t, failures)
}
