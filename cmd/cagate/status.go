package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the control channel can be opened",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: unreachable\n", a.cfg.Control.URL)
				return err
			}
			defer c.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", a.cfg.Control.URL, c.State())
			return nil
		},
	}
}
