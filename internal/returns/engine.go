package returns

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"esgcli/pkg/contracts/domain"
)

// Engine computes annual returns under one configuration.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// Report is the full outcome of one run.
type Report struct {
	Table  *domain.AnnotatedTable `json:"table"`
	Annual []AnnualResult         `json:"annual"`
	Stats  Stats                  `json:"stats"`
}

// NewEngine validates cfg and returns an engine. An unknown policy yields
// InvalidPolicyError.
func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute transforms the input table into the annotated table.
func (e *Engine) Compute(ctx context.Context, table domain.Table) (*domain.AnnotatedTable, error) {
	report, err := e.ComputeWithStats(ctx, table)
	if err != nil {
		return nil, err
	}
	return report.Table, nil
}

// ComputeWithStats is Compute plus the per-group results and stage counters.
func (e *Engine) ComputeWithStats(ctx context.Context, table domain.Table) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	e.logger.InfoContext(ctx, "starting annual return computation",
		"rows", len(table.Rows),
		"policy", e.cfg.PartialPolicy.String(),
		"min_months_per_year", e.cfg.MinMonthsPerYear,
		"min_months_for_partial", e.cfg.MinMonthsForPartial,
	)

	var stats Stats
	norm, err := normalize(table, e.cfg.Columns, &stats)
	if err != nil {
		e.logger.WarnContext(ctx, "input rejected", "error", err)
		return nil, err
	}
	e.logger.DebugContext(ctx, "normalized input",
		"kept", len(norm.observations),
		"dropped_company", stats.DroppedCompany,
		"dropped_date", stats.DroppedDate,
		"dropped_price", stats.DroppedPrice,
	)

	obs := deduplicate(norm.observations, &stats)
	e.logger.DebugContext(ctx, "deduplicated observations",
		"kept", len(obs),
		"duplicates", stats.Duplicates,
	)

	runs := monthlyReturns(obs)
	stats.Groups = len(runs)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, err := e.aggregate(runs)
	if err != nil {
		return nil, fmt.Errorf("aggregate company years: %w", err)
	}

	out := &domain.AnnotatedTable{
		Columns:      norm.columns,
		ReturnColumn: e.cfg.Columns.AnnualReturnPct,
		Rows:         make([]domain.AnnotatedRow, 0, len(obs)),
	}
	for ri, run := range runs {
		res := results[ri]
		if res.Full {
			stats.FullYears++
		}
		if res.AnnualReturnPct.IsSet() {
			stats.GroupsWithReturn++
		}
		for _, o := range obs[run.start:run.end] {
			out.Rows = append(out.Rows, domain.AnnotatedRow{
				Index:        o.index,
				Company:      o.company,
				Date:         o.date,
				Price:        o.price,
				Year:         o.date.Year(),
				Values:       o.values,
				AnnualReturn: res.AnnualReturnPct,
			})
		}
	}
	stats.OutputRows = len(out.Rows)

	e.logger.InfoContext(ctx, "annual return computation completed",
		"duration", time.Since(start),
		"output_rows", stats.OutputRows,
		"groups", stats.Groups,
		"groups_with_return", stats.GroupsWithReturn,
		"full_years", stats.FullYears,
	)

	return &Report{Table: out, Annual: results, Stats: stats}, nil
}

// aggregate evaluates every run. With more than one worker the groups are
// fanned out; each result lands at its run index so ordering is unchanged.
func (e *Engine) aggregate(runs []groupRun) ([]AnnualResult, error) {
	results := make([]AnnualResult, len(runs))
	if e.cfg.Workers <= 1 || len(runs) < 2 {
		for i, run := range runs {
			results[i] = e.cfg.evaluate(run.group)
		}
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i := range runs {
		g.Go(func() error {
			results[i] = e.cfg.evaluate(runs[i].group)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
