package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/subcommands"

	"esgcli/internal/exporter"
	"esgcli/internal/returns"
)

type returnsCmd struct {
	engine engineFlags
	out    string
	format string
	plain  bool
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "annotate a price panel with annual returns" }
func (*returnsCmd) Usage() string {
	return `esgcli returns -in <file> [-out <file>] [-format csv|json] [-policy <policy>]
  [-min-months n] [-min-partial n] [-workers n] [-governance] [-plain]

  Computes the annual return of every company and year and writes the input
  rows with an AnnualReturnPct column. Without -out the report is written to
  the reports directory. A summary is printed to stdout.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	c.engine.SetFlags(f)
	f.StringVar(&c.out, "out", "", "Output file (defaults to <input>_annual_returns_<date>.csv in the reports directory)")
	f.StringVar(&c.format, "format", "", "Output format: csv or json (defaults to the configured format)")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
}

func (c *returnsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env, err := loadEnvironment()
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	md, err := c.run(ctx, env, time.Now())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	printMarkdown(md, c.plain)
	return subcommands.ExitSuccess
}

// run computes, writes the report and returns the summary markdown.
func (c *returnsCmd) run(ctx context.Context, env *environment, now time.Time) (string, error) {
	format := c.format
	if format == "" {
		format = env.cfg.Export.Format
	}
	if format != "csv" && format != "json" {
		return "", fmt.Errorf("invalid -format %q: must be csv or json", format)
	}

	report, err := c.engine.compute(ctx, env)
	if err != nil {
		return "", err
	}

	out, err := c.outputPath(env, format, now)
	if err != nil {
		return "", err
	}
	writer := exporter.NewCSVWriter(env.paths)
	if format == "json" {
		err = writer.WriteJSON(out, jsonReport{Annual: report.Annual, Stats: report.Stats})
	} else {
		err = writer.WriteAnnotated(out, report.Table, env.cfg.Export.Precision)
	}
	if err != nil {
		return "", err
	}
	env.logger.InfoContext(ctx, "report written", "path", out, "format", format)

	return exporter.AnnualSummaryMarkdown(report, env.cfg.Export.Precision) +
		fmt.Sprintf("\nReport written to `%s`\n", out), nil
}

// outputPath resolves -out against the working directory, or names the
// report after the input in the reports directory.
func (c *returnsCmd) outputPath(env *environment, format string, now time.Time) (string, error) {
	if c.out != "" {
		return filepath.Abs(c.out)
	}
	out := env.paths.GetAnnotatedReportPath(c.engine.in, now)
	if format == "json" {
		out = strings.TrimSuffix(out, filepath.Ext(out)) + ".json"
	}
	return out, nil
}

// jsonReport is the JSON form of a run written by -format json.
type jsonReport struct {
	Annual []returns.AnnualResult `json:"annual"`
	Stats  returns.Stats          `json:"stats"`
}
