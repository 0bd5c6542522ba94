package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the registered agents and providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, _, err := loadApp(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, a := range app.Engine().Agents() {
				fmt.Fprintf(w, "%s\t%s\n", a.Name, a.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nproviders: %s\n", strings.Join(app.Providers(), ", "))
			return err
		},
	}
}
