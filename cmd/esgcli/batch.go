package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
)

type batchCmd struct {
	engine engineFlags
	dir    string
	plain  bool
}

func (*batchCmd) Name() string     { return "batch" }
func (*batchCmd) Synopsis() string { return "annotate every input file of a directory" }
func (*batchCmd) Usage() string {
	return `esgcli batch -dir <directory> [-policy <policy>] [-min-months n] [-min-partial n]
  [-workers n] [-governance] [-plain]

  Runs the engine on every CSV and Excel file of the directory and writes one
  annotated report per file to the reports directory. Files that fail are
  listed with their error; the command fails when any file failed.
`
}

func (c *batchCmd) SetFlags(f *flag.FlagSet) {
	c.engine.SetFlags(f)
	f.StringVar(&c.dir, "dir", "", "Directory of input files (defaults to the data directory)")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
}

func (c *batchCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env, err := loadEnvironment()
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	md, failed, err := c.run(ctx, env, time.Now())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	printMarkdown(md, c.plain)
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// run processes the directory and returns the markdown summary and the
// number of failed files.
func (c *batchCmd) run(ctx context.Context, env *environment, now time.Time) (string, int, error) {
	if c.engine.in != "" {
		return "", 0, fmt.Errorf("batch reads -dir, not -in")
	}
	dir := c.dir
	if dir == "" {
		dir = env.paths.DataDir
	}
	results, err := env.batch.Run(ctx, dir, c.engine.overrides(), now)
	if err != nil {
		return "", 0, err
	}
	return results.Markdown(), results.Failed(), nil
}
