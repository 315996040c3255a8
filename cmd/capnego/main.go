// Command capnego computes with media capabilities and negotiates formats
// between registered elements.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/capnego/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
