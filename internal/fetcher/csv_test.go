package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamCSV_HeaderAndRows(t *testing.T) {
	input := "abbr,year,enrollment\nCA,2025,5800000\nTX,2025,5500000\n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)

	assert.Equal(t, []string{"abbr", "year", "enrollment"}, <-headerCh)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"CA", "2025", "5800000"}, rows[0])
}

func TestStreamCSV_SkipRowsAndTrim(t *testing.T) {
	// Population files carry a vintage banner line before the real header.
	input := "Vintage 2024 County Projections\nyear, age, totalpopulation\n2025, 7, 1200\n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		SkipRows:  1,
		HasHeader: true,
		TrimSpace: true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"2025", "7", "1200"}, rows[0])
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\nc,d\n"), CSVOptions{})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}

func TestReadCSV(t *testing.T) {
	input := "abbr,year,enrollment\nIA,2026,480000\n"

	header, rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"abbr", "year", "enrollment"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, "IA", rows[0][0])
}

func TestReadCSV_RaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n3,4,5,6\n"

	_, rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{HasHeader: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 4)
}
