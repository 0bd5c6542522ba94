package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/genui"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "genui %s\n", genui.Version)
			return err
		},
	}
}
