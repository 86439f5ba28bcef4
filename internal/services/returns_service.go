package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"esgcli/internal/config"
	"esgcli/internal/dataprocessing"
	"esgcli/internal/infrastructure"
	"esgcli/internal/returns"
	"esgcli/pkg/contracts/domain"
)

// Run sources reported in metrics and spans
const (
	SourceTable  = "table"
	SourceFile   = "file"
	SourceUpload = "upload"
)

// Overrides replace configured engine settings for a single run. Nil fields
// keep the configured value.
type Overrides struct {
	PartialPolicy       *string `json:"partial_policy,omitempty"`
	MinMonthsPerYear    *int    `json:"min_months_per_year,omitempty" validate:"omitempty,gte=0,lte=12"`
	MinMonthsForPartial *int    `json:"min_months_for_partial,omitempty" validate:"omitempty,gte=0,lte=12"`
	Workers             *int    `json:"workers,omitempty" validate:"omitempty,gte=0,lte=256"`
	// Governance forces the governance pre-filter on or off.
	Governance *bool `json:"governance,omitempty"`
}

// ReturnsService runs the annual return engine with the application
// configuration.
type ReturnsService struct {
	returnsCfg config.ReturnsConfig
	inputCfg   config.InputConfig
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *infrastructure.EngineMetrics
}

// NewReturnsService creates the service. A nil tracer uses the global
// provider; nil metrics record nothing.
func NewReturnsService(cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, metrics *infrastructure.EngineMetrics) *ReturnsService {
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.InstrumentationName)
	}
	return &ReturnsService{
		returnsCfg: cfg.Returns,
		inputCfg:   cfg.Input,
		logger:     infrastructure.WithComponent(logger, "returns_service"),
		tracer:     tracer,
		metrics:    metrics,
	}
}

// EngineConfig builds the engine configuration with o applied.
func (s *ReturnsService) EngineConfig(o Overrides) returns.Config {
	cfg := returns.Config{
		MinMonthsPerYear:    s.returnsCfg.MinMonthsPerYear,
		PartialPolicy:       returns.Policy(s.returnsCfg.PartialPolicy),
		MinMonthsForPartial: s.returnsCfg.MinMonthsForPartial,
		Workers:             s.returnsCfg.Workers,
		Columns: returns.Columns{
			Company:         s.returnsCfg.CompanyColumn,
			Date:            s.returnsCfg.DateColumn,
			ClosePrice:      s.returnsCfg.PriceColumn,
			AnnualReturnPct: s.returnsCfg.ReturnColumn,
		},
	}
	if o.PartialPolicy != nil {
		cfg.PartialPolicy = returns.Policy(*o.PartialPolicy)
	}
	if o.MinMonthsPerYear != nil {
		cfg.MinMonthsPerYear = *o.MinMonthsPerYear
	}
	if o.MinMonthsForPartial != nil {
		cfg.MinMonthsForPartial = *o.MinMonthsForPartial
	}
	if o.Workers != nil {
		cfg.Workers = *o.Workers
	}
	return cfg
}

// ReadOptions returns the ingestion options of the configured dataset.
func (s *ReturnsService) ReadOptions() dataprocessing.ReadOptions {
	opts := dataprocessing.ReadOptions{
		Sheet:          s.inputCfg.Sheet,
		CompanyColumn:  s.returnsCfg.CompanyColumn,
		DateColumn:     s.returnsCfg.DateColumn,
		HeaderScanRows: s.inputCfg.HeaderScanRows,
	}
	if d := []rune(s.inputCfg.Delimiter); len(d) == 1 {
		opts.Delimiter = d[0]
	}
	return opts
}

func (s *ReturnsService) governanceOptions() dataprocessing.GovernanceOptions {
	return dataprocessing.GovernanceOptions{
		CompanyColumn: s.returnsCfg.CompanyColumn,
		ScoreColumn:   s.inputCfg.ScoreColumn,
		PriceColumn:   s.returnsCfg.PriceColumn,
		DateColumn:    s.returnsCfg.DateColumn,
		SectorColumn:  s.inputCfg.SectorColumn,
	}
}

func (s *ReturnsService) requireGovernance(o Overrides) bool {
	if o.Governance != nil {
		return *o.Governance
	}
	return s.inputCfg.RequireGovernance
}

// Compute runs the engine over table.
func (s *ReturnsService) Compute(ctx context.Context, table domain.Table, o Overrides) (*returns.Report, error) {
	return s.run(ctx, SourceTable, table, o)
}

// ComputeFile reads the xlsx or CSV file at path and runs the engine over it.
func (s *ReturnsService) ComputeFile(ctx context.Context, path string, o Overrides) (*returns.Report, error) {
	s.logger.InfoContext(ctx, "reading input file", slog.String("path", path))
	table, err := dataprocessing.ReadTable(ctx, path, s.ReadOptions())
	if err != nil {
		s.metrics.RecordEngineRun(ctx, infrastructure.EngineRun{Source: SourceFile, Err: err})
		return nil, wrapEngineError(err)
	}
	return s.run(ctx, SourceFile, *table, o)
}

// ComputeReader parses an uploaded file; name selects the format by its
// extension.
func (s *ReturnsService) ComputeReader(ctx context.Context, r io.Reader, name string, o Overrides) (*returns.Report, error) {
	format, err := dataprocessing.DetectFormat(name)
	if err == nil {
		var table *domain.Table
		if table, err = dataprocessing.ReadFrom(ctx, r, format, s.ReadOptions()); err == nil {
			return s.run(ctx, SourceUpload, *table, o)
		}
	}
	s.metrics.RecordEngineRun(ctx, infrastructure.EngineRun{Source: SourceUpload, Err: err})
	s.logger.WarnContext(ctx, "failed to read upload",
		slog.String("file", filepath.Base(name)),
		slog.String("error", err.Error()))
	return nil, wrapEngineError(err)
}

func (s *ReturnsService) run(ctx context.Context, source string, table domain.Table, o Overrides) (report *returns.Report, err error) {
	cfg := s.EngineConfig(o)

	ctx, span := s.tracer.Start(ctx, "returns.compute",
		trace.WithAttributes(
			attribute.String("returns.source", source),
			attribute.String("returns.policy", cfg.PartialPolicy.String()),
			attribute.Int("returns.input_rows", len(table.Rows)),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		run := infrastructure.EngineRun{
			Source:    source,
			Policy:    cfg.PartialPolicy.String(),
			InputRows: len(table.Rows),
			Duration:  time.Since(start),
			Err:       err,
		}
		if report != nil {
			run.OutputRows = report.Stats.OutputRows
			run.Groups = report.Stats.Groups
			run.GroupsWithReturn = report.Stats.GroupsWithReturn
			span.SetAttributes(
				attribute.Int("returns.output_rows", report.Stats.OutputRows),
				attribute.Int("returns.groups", report.Stats.Groups),
			)
		}
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
		s.metrics.RecordEngineRun(ctx, run)
	}()

	engine, err := returns.NewEngine(cfg, s.logger)
	if err != nil {
		return nil, wrapEngineError(err)
	}

	if s.requireGovernance(o) {
		prepared, stats, perr := dataprocessing.PrepareGovernance(table, s.governanceOptions())
		if perr != nil {
			return nil, wrapEngineError(perr)
		}
		s.logger.InfoContext(ctx, "governance dataset prepared",
			slog.Int("input_rows", stats.InputRows),
			slog.Int("dropped_company", stats.DroppedCompany),
			slog.Int("dropped_date", stats.DroppedDate),
			slog.Int("dropped_score", stats.DroppedScore),
			slog.Int("dropped_price", stats.DroppedPrice),
			slog.Int("output_rows", stats.OutputRows))
		table = *prepared
	}

	report, err = engine.ComputeWithStats(ctx, table)
	if err != nil {
		s.logger.ErrorContext(ctx, "annual return computation failed",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, wrapEngineError(err)
	}
	return report, nil
}
