package services

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/shared/testutil"
)

func batchFixture(t *testing.T) (*BatchService, *config.Paths, string, *testutil.BufferedSlogHandler) {
	t.Helper()
	cfg := testConfig()
	cfg.Paths.BaseDir = t.TempDir()
	paths, err := config.ResolvePaths(cfg.Paths)
	require.NoError(t, err)

	in := filepath.Join(paths.BaseDir, "inputs")
	require.NoError(t, os.MkdirAll(in, 0o755))
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(content), 0o644))
	}
	write("a_prices.csv", "Company Name,Date,Close Price (USD)\nAcme,2021-01-31,100\nAcme,2021-12-31,120\n")
	write("b_empty.csv", "")
	write("c_broken.csv", "Ticker,When\nX,2021-01-01\n")
	write("readme.txt", "not an input")

	logger, logs := testutil.NewTestLogger(nil)
	svc := NewBatchService(NewReturnsService(cfg, discardLogger(), nil, nil), paths, 2, logger)
	return svc, paths, in, logs
}

func TestBatchServiceRun(t *testing.T) {
	svc, paths, in, logs := batchFixture(t)
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	results, err := svc.Run(context.Background(), in, Overrides{}, now)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 2, results.Failed())

	ok := results[0]
	assert.Equal(t, "a_prices.csv", ok.File)
	assert.Empty(t, ok.Error)
	assert.Equal(t, 2, ok.Stats.InputRows)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "a_prices_annual_returns_20240115.csv"), ok.Report)
	assert.FileExists(t, ok.Report)

	assert.Equal(t, "b_empty.csv", results[1].File)
	assert.Contains(t, results[1].Error, "file is empty")
	assert.Equal(t, "c_broken.csv", results[2].File)
	assert.NotEmpty(t, results[2].Error)

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "batch file failed")
	testutil.AssertLogAttr(t, logs, "file", "b_empty.csv")
	testutil.AssertLogAttr(t, logs, "component", "batch_service")
	testutil.AssertLogAttr(t, logs, "failed", int64(2))

	md := results.Markdown()
	assert.Contains(t, md, "Files: 3, failed: 2")
	assert.Contains(t, md, "| a_prices.csv | 2 | 2 | 1 | a_prices_annual_returns_20240115.csv |")

	reports, err := svc.Reports()
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "a_prices_annual_returns_20240115.csv", reports[0].Name)
}

func TestBatchServiceRunLog(t *testing.T) {
	svc, paths, in, logs := batchFixture(t)
	now := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		_, err := svc.Run(context.Background(), in, Overrides{}, now)
		require.NoError(t, err)
	}

	content, err := os.ReadFile(paths.GetLogPath(BatchLogFile))
	require.NoError(t, err)
	text := string(content)
	require.True(t, strings.HasPrefix(text, "\ufeff"))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, batchLogHeader, records[0])
	assert.Equal(t, []string{"2024-01-15T08:30:00Z", "a_prices.csv", "2", "2", "1", "a_prices_annual_returns_20240115.csv", ""}, records[1])
	assert.Equal(t, "b_empty.csv", records[2][1])
	assert.Contains(t, records[2][6], "file is empty")
	assert.Equal(t, records[1:4], records[4:7])

	reports, err := svc.Reports()
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.False(t, logs.ContainsMessage("batch run log not written"))
}

func TestBatchServiceErrors(t *testing.T) {
	svc, _, in, _ := batchFixture(t)

	_, err := svc.Run(context.Background(), filepath.Join(in, "missing"), Overrides{}, time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Run(ctx, in, Overrides{}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchResultsMarkdownEscapesErrors(t *testing.T) {
	md := BatchResults{{File: "x.csv", Error: "a|b"}}.Markdown()
	assert.True(t, strings.Contains(md, `error: a\|b`))
}
