package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nixpare/proc/internal/cli"
)

var version = "dev"

func main() {
	err := cli.NewRootCommand(version).Execute()
	if err != nil {
		// the child already reported its own failure
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || err.Error() != exitErr.Error() {
			fmt.Fprintf(os.Stderr, "procctl: %v\n", err)
		}
	}
	os.Exit(cli.ExitCode(err))
}
