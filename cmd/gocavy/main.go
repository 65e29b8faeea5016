// Command gocavy compiles Cavy programs, samples them and decodes their
// measurement results.
package main

import (
	"os"

	"github.com/roach88/gocavy/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
