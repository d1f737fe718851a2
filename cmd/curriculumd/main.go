// Command curriculumd serves and maintains the curriculum store.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"curriculumcore/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		_, _ = color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "✗ ")
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
