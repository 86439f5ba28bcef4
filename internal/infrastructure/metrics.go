package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics are the request instruments of the HTTP server.
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP instruments on meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requests, err := meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests"))
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{RequestsTotal: requests, RequestDuration: duration, ActiveRequests: active}, nil
}

// EngineMetrics are the instruments of annual return computations and
// analyses.
type EngineMetrics struct {
	Runs             metric.Int64Counter
	Errors           metric.Int64Counter
	Duration         metric.Float64Histogram
	InputRows        metric.Int64Counter
	OutputRows       metric.Int64Counter
	Groups           metric.Int64Counter
	GroupsWithReturn metric.Int64Counter
	Analyses         metric.Int64Counter
	AnalysisDuration metric.Float64Histogram
}

// NewEngineMetrics creates the engine instruments on meter.
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	m := &EngineMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.Runs, "engine_runs_total", "Total number of annual return computations"},
		{&m.Errors, "engine_errors_total", "Total number of failed computations"},
		{&m.InputRows, "engine_input_rows_total", "Rows read by the engine"},
		{&m.OutputRows, "engine_output_rows_total", "Rows written by the engine"},
		{&m.Groups, "engine_company_years_total", "Company years aggregated"},
		{&m.GroupsWithReturn, "engine_company_years_with_return_total", "Company years with an annual return"},
		{&m.Analyses, "analysis_runs_total", "Total number of governance analyses"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	if m.Duration, err = meter.Float64Histogram("engine_duration_seconds",
		metric.WithDescription("Annual return computation duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.AnalysisDuration, err = meter.Float64Histogram("analysis_duration_seconds",
		metric.WithDescription("Governance analysis duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

// EngineRun describes one finished computation.
type EngineRun struct {
	Source           string
	Policy           string
	InputRows        int
	OutputRows       int
	Groups           int
	GroupsWithReturn int
	Duration         time.Duration
	Err              error
}

// RecordEngineRun records a computation. A nil receiver records nothing.
func (m *EngineMetrics) RecordEngineRun(ctx context.Context, run EngineRun) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("source", run.Source),
		attribute.String("policy", run.Policy),
	)
	m.Runs.Add(ctx, 1, attrs)
	m.Duration.Record(ctx, run.Duration.Seconds(), attrs)
	if run.Err != nil {
		m.Errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", run.Source),
			attribute.String("error.type", fmt.Sprintf("%T", run.Err)),
		))
		return
	}
	m.InputRows.Add(ctx, int64(run.InputRows), attrs)
	m.OutputRows.Add(ctx, int64(run.OutputRows), attrs)
	m.Groups.Add(ctx, int64(run.Groups), attrs)
	m.GroupsWithReturn.Add(ctx, int64(run.GroupsWithReturn), attrs)
}

// RecordAnalysis records one analysis. A nil receiver records nothing.
func (m *EngineMetrics) RecordAnalysis(ctx context.Context, name string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("analysis", name), attribute.String("status", status))
	m.Analyses.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)
}
