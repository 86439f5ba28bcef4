// Command esgcli computes annual returns from monthly price panels and runs
// the governance analyses on the result.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var (
	configFile = flag.String("config", "", "Path to a YAML configuration file (defaults to $ESG_CONFIG_FILE or ./config.yaml)")
	logLevel   = flag.String("log-level", "", "Override the configured log level (debug, info, warn, error)")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register adds every command to c.
func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
	c.Register(&versionCmd{}, "")

	c.Register(&returnsCmd{}, "engine")
	c.Register(&batchCmd{}, "engine")

	c.Register(&quintilesCmd{}, "analytics")
	c.Register(&correlateCmd{}, "analytics")
	c.Register(&regressCmd{}, "analytics")
	c.Register(&benchmarkCmd{}, "analytics")
	c.Register(&timeseriesCmd{}, "analytics")
}
