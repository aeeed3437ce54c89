package main

import (
	"github.com/spf13/cobra"
)

func newStartCommand(a *app) *cobra.Command {
	var key int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Press the machine's start button",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Click(ctx, key, a.cfg.Button.Hold); err != nil {
				return err
			}
			if err := c.Flush(ctx); err != nil {
				return err
			}
			log.Infof("button %d clicked", key)
			return nil
		},
	}

	cmd.Flags().IntVar(&key, "key", 0, "Button key to press")
	return cmd
}
