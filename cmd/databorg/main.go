// Command databorg runs parameterized SPARQL queries from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/pneff/databorg-client/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "databorg:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
