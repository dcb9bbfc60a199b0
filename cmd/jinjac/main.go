// Command jinjac compiles templates to Target AST, for inspection or
// hand-off to an external code printer.
package main

import (
	"fmt"
	"os"

	"github.com/jinjac/jinjac/cmd/jinjac/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
