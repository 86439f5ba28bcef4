package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"esgcli/internal/analytics"
	"esgcli/internal/exporter"
)

// analysisCmd holds the flags shared by the analytics commands. Each command
// runs the engine on -in and renders one analysis of its output.
type analysisCmd struct {
	engine engineFlags
	plain  bool
}

func (a *analysisCmd) setFlags(f *flag.FlagSet) {
	a.engine.SetFlags(f)
	f.BoolVar(&a.plain, "plain", false, "Print raw markdown")
}

// execute loads the environment, computes the samples and prints the
// markdown render returns.
func (a *analysisCmd) execute(ctx context.Context, render func(context.Context, *environment, []analytics.Sample) (string, error)) subcommands.ExitStatus {
	env, err := loadEnvironment()
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	md, err := a.run(ctx, env, render)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	printMarkdown(md, a.plain)
	return subcommands.ExitSuccess
}

func (a *analysisCmd) run(ctx context.Context, env *environment, render func(context.Context, *environment, []analytics.Sample) (string, error)) (string, error) {
	report, err := a.engine.compute(ctx, env)
	if err != nil {
		return "", err
	}
	return render(ctx, env, env.analytics.Samples(report.Table))
}

type quintilesCmd struct {
	analysisCmd
	years string
}

func (*quintilesCmd) Name() string     { return "quintiles" }
func (*quintilesCmd) Synopsis() string { return "mean annual return per governance score quintile" }
func (*quintilesCmd) Usage() string {
	return `esgcli quintiles -in <file> [-years 2020,2021] [engine flags] [-plain]

  Splits the samples into five governance score quintiles and compares their
  mean annual returns.
`
}

func (c *quintilesCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.years, "years", "", "Comma separated years to keep (all when empty)")
}

func (c *quintilesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, c.render)
}

func (c *quintilesCmd) render(ctx context.Context, env *environment, samples []analytics.Sample) (string, error) {
	years, err := splitInts(c.years)
	if err != nil {
		return "", fmt.Errorf("-years: %w", err)
	}
	report, err := env.analytics.Quintiles(ctx, samples, years...)
	if err != nil {
		return "", err
	}
	return exporter.QuintilesMarkdown(report), nil
}

type correlateCmd struct {
	analysisCmd
	minObs int
	top    int
}

func (*correlateCmd) Name() string     { return "correlate" }
func (*correlateCmd) Synopsis() string { return "correlation of governance score and return per company" }
func (*correlateCmd) Usage() string {
	return `esgcli correlate -in <file> [-min-obs n] [-top n] [engine flags] [-plain]

  Computes the Pearson correlation of governance score and annual return for
  every company with enough observations.
`
}

func (c *correlateCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.IntVar(&c.minObs, "min-obs", 0, "Minimum observations per company (0 uses the configured minimum)")
	f.IntVar(&c.top, "top", 0, "Companies listed at each end (0 uses the configured count)")
}

func (c *correlateCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, c.render)
}

func (c *correlateCmd) render(ctx context.Context, env *environment, samples []analytics.Sample) (string, error) {
	report, err := env.analytics.Correlations(ctx, samples, c.minObs)
	if err != nil {
		return "", err
	}
	top := c.top
	if top <= 0 {
		top = env.cfg.Analytics.TopN
	}
	return exporter.CorrelationMarkdown(report, top), nil
}

type regressCmd struct {
	analysisCmd
	clip    string
	groupBy string
}

func (*regressCmd) Name() string     { return "regress" }
func (*regressCmd) Synopsis() string { return "regression of annual return on governance score" }
func (*regressCmd) Usage() string {
	return `esgcli regress -in <file> [-clip none|hard|quantile] [-group-by company|sector] [engine flags] [-plain]

  Fits a least squares line of annual return on governance score after
  clipping outlying returns, optionally per company or sector as well.
`
}

func (c *regressCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.clip, "clip", "", "Return clipping: none, hard or quantile (defaults to the configured mode)")
	f.StringVar(&c.groupBy, "group-by", "", "Also fit per company or sector")
}

func (c *regressCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, c.render)
}

func (c *regressCmd) render(ctx context.Context, env *environment, samples []analytics.Sample) (string, error) {
	report, groups, err := env.analytics.Regress(ctx, samples, c.clip, c.groupBy)
	if err != nil {
		return "", err
	}
	return exporter.RegressionMarkdown(report, groups), nil
}

type benchmarkCmd struct {
	analysisCmd
	year   int
	search string
}

func (*benchmarkCmd) Name() string     { return "benchmark" }
func (*benchmarkCmd) Synopsis() string { return "governance scores against the sector median" }
func (*benchmarkCmd) Usage() string {
	return `esgcli benchmark -in <file> [-year n] [-search text] [engine flags] [-plain]

  Describes the governance score distribution of every sector in one year and
  ranks companies by their distance from the sector median.
`
}

func (c *benchmarkCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.IntVar(&c.year, "year", 0, "Year to benchmark (0 uses the latest year)")
	f.StringVar(&c.search, "search", "", "Keep companies or sectors containing this text")
}

func (c *benchmarkCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, c.render)
}

func (c *benchmarkCmd) render(ctx context.Context, env *environment, samples []analytics.Sample) (string, error) {
	report, err := env.analytics.Benchmark(ctx, samples, c.year)
	if err != nil {
		return "", err
	}
	return exporter.BenchmarkMarkdown(report, report.Search(c.search)), nil
}

type timeseriesCmd struct {
	analysisCmd
	companies string
	sectors   string
}

func (*timeseriesCmd) Name() string     { return "timeseries" }
func (*timeseriesCmd) Synopsis() string { return "governance score and return over time" }
func (*timeseriesCmd) Usage() string {
	return `esgcli timeseries -in <file> [-companies a,b] [-sectors x,y] [engine flags] [-plain]

  Shows the yearly mean score and return of companies and sectors.
`
}

func (c *timeseriesCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.companies, "companies", "", "Comma separated companies (all when empty)")
	f.StringVar(&c.sectors, "sectors", "", "Comma separated sectors (all when empty)")
}

func (c *timeseriesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, c.render)
}

func (c *timeseriesCmd) render(ctx context.Context, env *environment, samples []analytics.Sample) (string, error) {
	series, trends, err := env.analytics.Timeseries(ctx, samples, splitList(c.companies), splitList(c.sectors))
	if err != nil {
		return "", err
	}
	return exporter.TimeseriesMarkdown(series, trends), nil
}
