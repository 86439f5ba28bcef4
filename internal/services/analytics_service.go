package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"esgcli/internal/analytics"
	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts/domain"
)

// Analysis names
const (
	AnalysisQuintiles    = "quintiles"
	AnalysisCorrelations = "correlations"
	AnalysisRegression   = "regression"
	AnalysisBenchmark    = "benchmark"
	AnalysisTimeseries   = "timeseries"
)

// AllAnalyses lists the analyses run when a request names none.
var AllAnalyses = []string{
	AnalysisQuintiles,
	AnalysisCorrelations,
	AnalysisRegression,
	AnalysisBenchmark,
	AnalysisTimeseries,
}

// AnalyticsRequest selects analyses and their parameters. Zero values use
// the configured defaults.
type AnalyticsRequest struct {
	Analyses        []string `json:"analyses,omitempty" validate:"omitempty,dive,oneof=quintiles correlations regression benchmark timeseries"`
	Years           []int    `json:"years,omitempty"`
	BenchmarkYear   int      `json:"benchmark_year,omitempty" validate:"omitempty,gte=1900,lte=2200"`
	Companies       []string `json:"companies,omitempty"`
	Sectors         []string `json:"sectors,omitempty"`
	ClipMode        string   `json:"clip_mode,omitempty" validate:"omitempty,oneof=none hard quantile"`
	GroupBy         string   `json:"group_by,omitempty" validate:"omitempty,oneof=company sector"`
	MinObservations int      `json:"min_observations,omitempty" validate:"omitempty,gte=3"`
}

// Summaries holds the results of the requested analyses. Analyses that
// could not run on the data are listed in Skipped with the reason.
type Summaries struct {
	Samples       int                          `json:"samples"`
	Quintiles     *analytics.QuintileReport    `json:"quintiles,omitempty"`
	Correlations  *analytics.CorrelationReport `json:"correlations,omitempty"`
	Regression    *analytics.RegressionReport  `json:"regression,omitempty"`
	GroupFits     []analytics.GroupFit         `json:"group_fits,omitempty"`
	Benchmark     *analytics.BenchmarkReport   `json:"benchmark,omitempty"`
	CompanySeries []analytics.CompanySeries    `json:"company_series,omitempty"`
	SectorTrends  []analytics.SectorTrend      `json:"sector_trends,omitempty"`
	Skipped       map[string]string            `json:"skipped,omitempty"`
}

// AnalyticsService runs the governance analyses over engine output.
type AnalyticsService struct {
	cfg     config.AnalyticsConfig
	columns analytics.Columns
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.EngineMetrics
}

// NewAnalyticsService creates the service. A nil tracer uses the global
// provider; nil metrics record nothing.
func NewAnalyticsService(cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, metrics *infrastructure.EngineMetrics) *AnalyticsService {
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.InstrumentationName)
	}
	return &AnalyticsService{
		cfg: cfg.Analytics,
		columns: analytics.Columns{
			Company: cfg.Returns.CompanyColumn,
			Score:   cfg.Input.ScoreColumn,
			Sector:  cfg.Input.SectorColumn,
		},
		logger:  infrastructure.WithComponent(logger, "analytics_service"),
		tracer:  tracer,
		metrics: metrics,
	}
}

// Thresholds returns the configured significance and strength thresholds.
func (s *AnalyticsService) Thresholds() analytics.Thresholds {
	return analytics.Thresholds{Alpha: s.cfg.SignificanceLevel, MinAbsR: s.cfg.CorrelationThreshold}
}

// Samples extracts the analysis samples of an annotated table.
func (s *AnalyticsService) Samples(table *domain.AnnotatedTable) []analytics.Sample {
	return analytics.Extract(table, s.columns)
}

// observe runs one analysis inside a span and records its metrics.
// ErrInsufficientData becomes an insufficient-data AppError.
func (s *AnalyticsService) observe(ctx context.Context, name string, samples int, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "analytics."+name,
		trace.WithAttributes(
			attribute.String("analytics.name", name),
			attribute.Int("analytics.samples", samples),
		))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.metrics.RecordAnalysis(ctx, name, time.Since(start), err)
	if err == nil {
		s.logger.DebugContext(ctx, "analysis completed",
			slog.String("analysis", name),
			slog.Int("samples", samples),
			slog.Duration("duration", time.Since(start)))
		return nil
	}

	infrastructure.RecordError(ctx, err)
	s.logger.WarnContext(ctx, "analysis failed",
		slog.String("analysis", name),
		slog.String("error", err.Error()))
	if errors.Is(err, analytics.ErrInsufficientData) {
		return apperrors.NewInsufficientDataError(name+" cannot run on the given data", err).
			WithContext("analysis", name)
	}
	return apperrors.NewComputationError(name+" failed", err)
}

// Quintiles groups the samples of years into governance quintiles.
func (s *AnalyticsService) Quintiles(ctx context.Context, samples []analytics.Sample, years ...int) (*analytics.QuintileReport, error) {
	var report *analytics.QuintileReport
	err := s.observe(ctx, AnalysisQuintiles, len(samples), func(context.Context) error {
		var err error
		report, err = analytics.Quintiles(samples, years...)
		return err
	})
	return report, err
}

// Correlations computes the per company correlations. minObs of zero uses
// the configured minimum.
func (s *AnalyticsService) Correlations(ctx context.Context, samples []analytics.Sample, minObs int) (*analytics.CorrelationReport, error) {
	if minObs <= 0 {
		minObs = s.cfg.MinObservations
	}
	var report *analytics.CorrelationReport
	err := s.observe(ctx, AnalysisCorrelations, len(samples), func(context.Context) error {
		report = analytics.Correlations(samples, minObs, s.Thresholds())
		return nil
	})
	return report, err
}

// Regress fits the global regression and the per group regressions. Empty
// mode and groupBy use the configured clip mode and per company groups.
func (s *AnalyticsService) Regress(ctx context.Context, samples []analytics.Sample, mode, groupBy string) (*analytics.RegressionReport, []analytics.GroupFit, error) {
	if mode == "" {
		mode = s.cfg.ClipMode
	}
	clip, err := analytics.ParseClipMode(mode)
	if err != nil {
		return nil, nil, apperrors.NewAppValidationError("invalid clip mode", err).WithContext("clip_mode", mode)
	}
	by := analytics.GroupByCompany
	if groupBy == string(analytics.GroupBySector) {
		by = analytics.GroupBySector
	}

	var (
		report *analytics.RegressionReport
		groups []analytics.GroupFit
	)
	err = s.observe(ctx, AnalysisRegression, len(samples), func(context.Context) error {
		var err error
		if report, err = analytics.Regress(samples, clip, s.Thresholds()); err != nil {
			return err
		}
		groups = analytics.GroupRegressions(samples, by, clip)
		return nil
	})
	return report, groups, err
}

// Benchmark compares scores within sectors for year, the latest year of the
// samples when year is zero.
func (s *AnalyticsService) Benchmark(ctx context.Context, samples []analytics.Sample, year int) (*analytics.BenchmarkReport, error) {
	var report *analytics.BenchmarkReport
	err := s.observe(ctx, AnalysisBenchmark, len(samples), func(context.Context) error {
		if year == 0 {
			years := analytics.Years(samples)
			if len(years) == 0 {
				return fmt.Errorf("benchmark: no samples: %w", analytics.ErrInsufficientData)
			}
			year = years[len(years)-1]
		}
		var err error
		report, err = analytics.Benchmark(samples, year)
		return err
	})
	return report, err
}

// Timeseries builds the company series and sector trends. No companies or
// sectors means all of them.
func (s *AnalyticsService) Timeseries(ctx context.Context, samples []analytics.Sample, companies, sectors []string) ([]analytics.CompanySeries, []analytics.SectorTrend, error) {
	var (
		series []analytics.CompanySeries
		trends []analytics.SectorTrend
	)
	err := s.observe(ctx, AnalysisTimeseries, len(samples), func(context.Context) error {
		series = analytics.CompanySeriesFor(samples, s.cfg.SignificanceLevel, companies...)
		trends = analytics.SectorTrends(samples, sectors...)
		if len(series) == 0 && len(trends) == 0 {
			return fmt.Errorf("timeseries: no samples with a return: %w", analytics.ErrInsufficientData)
		}
		return nil
	})
	return series, trends, err
}

// Summaries runs the requested analyses over table concurrently. Analyses
// lacking data are reported in Skipped; any other failure fails the call.
func (s *AnalyticsService) Summaries(ctx context.Context, table *domain.AnnotatedTable, req AnalyticsRequest) (*Summaries, error) {
	if table == nil {
		return nil, apperrors.NewAppValidationError("no annotated table", nil)
	}
	names, err := analysisNames(req.Analyses)
	if err != nil {
		return nil, err
	}

	samples := s.Samples(table)
	out := &Summaries{Samples: len(samples)}

	var mu sync.Mutex
	skip := func(name string, err error) error {
		if !apperrors.IsType(err, apperrors.ErrTypeInsufficientData) {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if out.Skipped == nil {
			out.Skipped = make(map[string]string)
		}
		out.Skipped[name] = err.Error()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		var task func() error
		switch name {
		case AnalysisQuintiles:
			task = func() error {
				r, err := s.Quintiles(gctx, samples, req.Years...)
				out.Quintiles = r
				return err
			}
		case AnalysisCorrelations:
			task = func() error {
				r, err := s.Correlations(gctx, samples, req.MinObservations)
				out.Correlations = r
				return err
			}
		case AnalysisRegression:
			task = func() error {
				r, groups, err := s.Regress(gctx, analytics.FilterYears(samples, req.Years...), req.ClipMode, req.GroupBy)
				out.Regression, out.GroupFits = r, groups
				return err
			}
		case AnalysisBenchmark:
			task = func() error {
				r, err := s.Benchmark(gctx, samples, req.BenchmarkYear)
				out.Benchmark = r
				return err
			}
		case AnalysisTimeseries:
			task = func() error {
				series, trends, err := s.Timeseries(gctx, samples, req.Companies, req.Sectors)
				out.CompanySeries, out.SectorTrends = series, trends
				return err
			}
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return skip(name, task())
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "analytics summaries completed",
		slog.Int("samples", len(samples)),
		slog.Int("analyses", len(names)),
		slog.Int("skipped", len(out.Skipped)))
	return out, nil
}

// analysisNames validates and deduplicates requested analyses, keeping
// their order. None requested means all.
func analysisNames(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return AllAnalyses, nil
	}
	known := make(map[string]bool, len(AllAnalyses))
	for _, name := range AllAnalyses {
		known[name] = true
	}
	seen := make(map[string]bool, len(requested))
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		if !known[name] {
			return nil, apperrors.NewAppValidationError("unknown analysis", nil).WithContext("analysis", name)
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}
