package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"

	"esgcli/internal/config"
	"esgcli/internal/infrastructure"
	"esgcli/internal/returns"
	"esgcli/internal/services"
)

// environment is what every command needs to run the engine.
type environment struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	returns   *services.ReturnsService
	analytics *services.AnalyticsService
	batch     *services.BatchService
}

// loadEnvironment reads the configuration selected by the global flags.
func loadEnvironment() (*environment, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	return newEnvironment(cfg)
}

// newEnvironment builds the services from cfg. Logs go to stderr so that
// stdout carries only the report.
func newEnvironment(cfg *config.Config) (*environment, error) {
	logCfg := cfg.Logging
	if logCfg.Output == "console" {
		logCfg.Format = "text"
	}
	logger, err := infrastructure.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	returnsService := services.NewReturnsService(cfg, logger, nil, nil)
	return &environment{
		cfg:       cfg,
		paths:     paths,
		logger:    logger,
		returns:   returnsService,
		analytics: services.NewAnalyticsService(cfg, logger, nil, nil),
		batch:     services.NewBatchService(returnsService, paths, cfg.Export.Precision, logger),
	}, nil
}

// engineFlags are the input and engine settings shared by all commands.
// Negative numbers and empty strings keep the configured value.
type engineFlags struct {
	in         string
	policy     string
	minMonths  int
	minPartial int
	workers    int
	governance bool
	noGov      bool
}

func (e *engineFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.in, "in", "", "Input CSV or Excel file (required)")
	f.StringVar(&e.policy, "policy", "", "Partial year policy: strict, ytd_partial or annualize_by_span")
	f.IntVar(&e.minMonths, "min-months", -1, "Months a year needs to count as full")
	f.IntVar(&e.minPartial, "min-partial", -1, "Months a partial year needs under a non-strict policy")
	f.IntVar(&e.workers, "workers", -1, "Parallel company-year workers (0 or 1 runs sequentially)")
	f.BoolVar(&e.governance, "governance", false, "Keep only rows with a governance score and a positive price")
	f.BoolVar(&e.noGov, "no-governance", false, "Disable the configured governance filter")
}

// overrides turns the flags that were set into engine overrides.
func (e *engineFlags) overrides() services.Overrides {
	var o services.Overrides
	if e.policy != "" {
		policy := e.policy
		o.PartialPolicy = &policy
	}
	if e.minMonths >= 0 {
		n := e.minMonths
		o.MinMonthsPerYear = &n
	}
	if e.minPartial >= 0 {
		n := e.minPartial
		o.MinMonthsForPartial = &n
	}
	if e.workers >= 0 {
		n := e.workers
		o.Workers = &n
	}
	switch {
	case e.governance:
		on := true
		o.Governance = &on
	case e.noGov:
		off := false
		o.Governance = &off
	}
	return o
}

// compute runs the engine on the input file.
func (e *engineFlags) compute(ctx context.Context, env *environment) (*returns.Report, error) {
	if e.in == "" {
		return nil, fmt.Errorf("-in is required")
	}
	return env.returns.ComputeFile(ctx, e.in, e.overrides())
}

// printMarkdown renders md for the terminal, or prints it unchanged when
// plain is set or rendering fails.
func printMarkdown(md string, plain bool) {
	if plain {
		fmt.Print(md)
		return
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// splitList parses a comma separated flag value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitInts parses a comma separated list of integers.
func splitInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// fail prints err the way every command reports errors.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
