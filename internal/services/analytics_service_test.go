package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/analytics"
	apperrors "esgcli/internal/errors"
)

func TestAnalyticsServiceSummaries(t *testing.T) {
	metrics, reader := testMetrics(t)
	svc := NewAnalyticsService(testConfig(), discardLogger(), nil, metrics)

	out, err := svc.Summaries(context.Background(), annotatedFixture(10, false), AnalyticsRequest{ClipMode: "none"})
	require.NoError(t, err)

	assert.Equal(t, 10, out.Samples)
	assert.Empty(t, out.Skipped)

	require.NotNil(t, out.Quintiles)
	require.Len(t, out.Quintiles.Groups, 5)
	assert.InDelta(t, 15.0, out.Quintiles.Groups[0].MeanPct, 1e-9)
	assert.InDelta(t, 95.0, out.Quintiles.Groups[4].MeanPct, 1e-9)

	require.NotNil(t, out.Correlations)
	assert.Empty(t, out.Correlations.Companies)
	assert.Equal(t, 30, out.Correlations.MinObservations)

	require.NotNil(t, out.Regression)
	assert.InDelta(t, 10.0, out.Regression.Fit.Slope, 1e-9)
	assert.Equal(t, analytics.VerdictPositive, out.Regression.Verdict)
	assert.Equal(t, analytics.ClipNone, out.Regression.Clip)

	require.NotNil(t, out.Benchmark)
	assert.Equal(t, 2021, out.Benchmark.Year)
	require.Len(t, out.Benchmark.Sectors, 2)
	assert.Equal(t, 5.0, out.Benchmark.Sectors[0].Median)
	assert.Equal(t, 6.0, out.Benchmark.Sectors[1].Median)

	assert.Len(t, out.CompanySeries, 10)
	assert.Len(t, out.SectorTrends, 2)

	assert.Equal(t, int64(5), counterTotal(t, reader, "analysis_runs_total"))
}

func TestAnalyticsServiceSummariesSkipsInsufficientData(t *testing.T) {
	svc := NewAnalyticsService(testConfig(), discardLogger(), nil, nil)

	out, err := svc.Summaries(context.Background(), annotatedFixture(10, true), AnalyticsRequest{
		Analyses: []string{AnalysisQuintiles, AnalysisRegression, AnalysisBenchmark, AnalysisQuintiles},
	})
	require.NoError(t, err)

	assert.Contains(t, out.Skipped, AnalysisQuintiles)
	assert.Contains(t, out.Skipped, AnalysisRegression)
	assert.Len(t, out.Skipped, 2)
	assert.Nil(t, out.Quintiles)
	assert.Nil(t, out.Regression)
	require.NotNil(t, out.Benchmark)
	assert.Nil(t, out.Correlations)
	assert.Nil(t, out.CompanySeries)
}

func TestAnalyticsServiceSummariesErrors(t *testing.T) {
	svc := NewAnalyticsService(testConfig(), discardLogger(), nil, nil)
	ctx := context.Background()

	_, err := svc.Summaries(ctx, nil, AnalyticsRequest{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = svc.Summaries(ctx, annotatedFixture(3, false), AnalyticsRequest{Analyses: []string{"forecast"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = svc.Summaries(ctx, annotatedFixture(10, false), AnalyticsRequest{
		Analyses: []string{AnalysisRegression},
		ClipMode: "soft",
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestAnalyticsServiceIndividual(t *testing.T) {
	svc := NewAnalyticsService(testConfig(), discardLogger(), nil, nil)
	ctx := context.Background()
	samples := svc.Samples(annotatedFixture(10, false))
	require.Len(t, samples, 10)

	t.Run("quintiles of a missing year", func(t *testing.T) {
		_, err := svc.Quintiles(ctx, samples, 1999)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientData))
		assert.ErrorIs(t, err, analytics.ErrInsufficientData)
	})

	t.Run("correlations with explicit minimum", func(t *testing.T) {
		report, err := svc.Correlations(ctx, samples, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, report.MinObservations)
	})

	t.Run("regression by sector", func(t *testing.T) {
		report, groups, err := svc.Regress(ctx, samples, "none", "sector")
		require.NoError(t, err)
		assert.InDelta(t, 10.0, report.Fit.Slope, 1e-9)
		require.Len(t, groups, 2)
		assert.Equal(t, "Fin", groups[0].Group)
		assert.Equal(t, "Tech", groups[1].Group)
	})

	t.Run("benchmark without samples", func(t *testing.T) {
		_, err := svc.Benchmark(ctx, nil, 0)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientData))
	})

	t.Run("timeseries filters", func(t *testing.T) {
		series, trends, err := svc.Timeseries(ctx, samples, []string{"C01"}, []string{"Tech"})
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, "C01", series[0].Company)
		require.Len(t, trends, 1)
		assert.Equal(t, "Tech", trends[0].Sector)
	})

	t.Run("thresholds from config", func(t *testing.T) {
		th := svc.Thresholds()
		assert.Equal(t, 0.05, th.Alpha)
		assert.Equal(t, 0.2, th.MinAbsR)
	})
}

func TestSummariesMarkdown(t *testing.T) {
	svc := NewAnalyticsService(testConfig(), discardLogger(), nil, nil)
	out, err := svc.Summaries(context.Background(), annotatedFixture(10, true), AnalyticsRequest{
		Analyses: []string{AnalysisQuintiles, AnalysisBenchmark},
	})
	require.NoError(t, err)

	md := out.Markdown(5)
	assert.Contains(t, md, "# Sector benchmark 2021")
	assert.Contains(t, md, "# Skipped analyses")
	assert.Contains(t, md, "- quintiles: ")
	assert.NotContains(t, md, "# Returns by governance quintile")
}
