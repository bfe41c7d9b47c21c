package main

import (
	"github.com/spf13/cobra"
)

var (
	parseOptionFlags []string
	verbose          bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "purple",
		Short: "Demonstration host for the coreruntime embeddable language core",
		Long: `purple embeds the coreruntime library and drives it through its
program lifecycle (program_create/program_parse/program_run/program_destroy).
It ships a small set of fixed demo programs since the core itself has no
parser of its own; a real host supplies its own front end.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&parseOptionFlags, "parse-option", nil, "parse option bit to set (repeatable), e.g. no-network")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print the call stack on an unhandled exception")

	root.AddCommand(newListCmd())
	root.AddCommand(newRunCmd())
	return root
}
