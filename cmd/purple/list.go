package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in demo programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range demos {
				fmt.Printf("%-18s %s\n", d.name, d.description)
			}
			return nil
		},
	}
}
