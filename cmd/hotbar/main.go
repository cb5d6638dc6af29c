// Command hotbar runs and inspects the cooldown prediction engine.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hotbar/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
