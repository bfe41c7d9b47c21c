// Command purple is a demonstration host embedding the coreruntime
// library (spec §6): it builds a handful of fixed Node trees directly
// in Go (this core has no lexer/parser of its own — spec.md leaves
// that to the host) and drives them through Program's lifecycle,
// printing results and formatting any unhandled exception the way a
// real host's default handler would (spec §7).
package main

import (
	"fmt"
	"os"

	"github.com/qorelang/coreruntime/pkg/runtime"
)

func main() {
	undo, err := runtime.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "automaxprocs: %v\n", err)
	} else {
		defer undo()
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
