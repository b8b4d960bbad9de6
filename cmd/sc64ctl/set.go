package main

import (
	"strconv"

	"github.com/spf13/cobra"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/flashcart64/sc64ctl/internal/engine"
)

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set boot-mode|tv-type|save-type|cic-seed <value>",
		Short: "Write one config register",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id engine.ConfigID
			switch args[0] {
			case "boot-mode":
				id = engine.BootMode
			case "tv-type":
				id = engine.TVType
			case "save-type":
				id = engine.SaveType
			case "cic-seed":
				id = engine.CICSeed
			default:
				return sc64.NewValueError("unknown setting "+args[0], nil)
			}
			value, err := strconv.ParseUint(args[1], 0, 32)
			if err != nil {
				return sc64.NewValueError("invalid value "+args[1], err)
			}
			eng, t, err := openEngine()
			if err != nil {
				return err
			}
			defer t.Close()
			return eng.SetConfig(id, uint32(value))
		},
	}
	return cmd
}
