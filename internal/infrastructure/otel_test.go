package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"esgcli/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		Enabled:        true,
		ServiceName:    "esg-returns",
		TracingEnabled: false,
		MetricsEnabled: true,
		SampleRate:     0.5,
	}, "1.2.3")

	assert.Equal(t, "esg-returns", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableTracing)
	assert.Equal(t, 0.5, cfg.SampleRatio)

	disabled := OTelConfigFrom(config.TelemetryConfig{TracingEnabled: true, MetricsEnabled: true}, "dev")
	assert.False(t, disabled.EnableMetrics)
	assert.False(t, disabled.EnableTracing)
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "esg-returns-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1,
	}, discardLogger())
	require.NoError(t, err)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, span := providers.Tracer.Start(context.Background(), "compute")
	traceID := TraceIDFromContext(ctx)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, traceID, GetTraceID(ctx))
	RecordError(ctx, errors.New("boom"))
	span.End()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(shutdownCtx))
}

func TestOTelDisabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "esg-returns-test"}, discardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NoError(t, providers.Shutdown(context.Background()))

	_, err = InitializeOTel(nil, discardLogger())
	assert.Error(t, err)

	_, err = InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "jaeger"}, discardLogger())
	assert.Error(t, err)
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestEngineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewEngineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEngineRun(ctx, EngineRun{
		Source: "upload", Policy: "strict",
		InputRows: 24, OutputRows: 20, Groups: 2, GroupsWithReturn: 1,
		Duration: 15 * time.Millisecond,
	})
	m.RecordEngineRun(ctx, EngineRun{Source: "upload", Policy: "strict", InputRows: 99, Err: errors.New("missing column")})
	m.RecordAnalysis(ctx, "quintiles", time.Millisecond, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumOf(t, rm, "engine_runs_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "engine_errors_total"))
	assert.Equal(t, int64(24), sumOf(t, rm, "engine_input_rows_total"))
	assert.Equal(t, int64(20), sumOf(t, rm, "engine_output_rows_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "engine_company_years_with_return_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "analysis_runs_total"))

	var nilMetrics *EngineMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordEngineRun(ctx, EngineRun{})
		nilMetrics.RecordAnalysis(ctx, "x", 0, nil)
	})
}

func TestHTTPMetricsAndRuntimeStats(t *testing.T) {
	m, err := NewHTTPMetrics(otel.Meter("test"))
	require.NoError(t, err)
	assert.NotNil(t, m.RequestsTotal)

	stats := CollectRuntimeStats(time.Now().Add(-time.Second))
	assert.Greater(t, stats.Goroutines, 0)
	assert.Greater(t, stats.CPUCount, 0)
	assert.GreaterOrEqual(t, stats.UptimeSeconds, 1.0)
}
