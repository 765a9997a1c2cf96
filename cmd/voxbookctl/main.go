// Command voxbookctl runs the booking pipeline offline: it parses utterances,
// checks conflicts against YAML snapshots and lists dictionaries without a
// server or network access.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var version = "dev"

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("voxbookctl"),
		kong.Description("Offline tools for the voxbook booking pipeline."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	if err := ctx.Run(&Context{Out: os.Stdout}, &cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
