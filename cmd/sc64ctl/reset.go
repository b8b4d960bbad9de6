package main

import "github.com/spf13/cobra"

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the cart's config and setting registers to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, t, err := openEngine()
			if err != nil {
				return err
			}
			defer t.Close()
			return eng.ResetState()
		},
	}
}
