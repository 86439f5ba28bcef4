package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"esgcli/pkg/contracts"
)

type versionCmd struct {
	asJSON bool
}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print build and version information" }
func (*versionCmd) Usage() string {
	return `esgcli version [-json]
`
}

func (c *versionCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print the version information as JSON")
}

func (c *versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.write(os.Stdout); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *versionCmd) write(w io.Writer) error {
	info := contracts.GetVersionInfo()
	if !c.asJSON {
		_, err := fmt.Fprintln(w, info)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
