package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/flashcart64/sc64ctl/internal/debugloop"
)

func newDebugCmd() *cobra.Command {
	var isvAddr uint32
	var disks []string
	var gdbPort int

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Run an interactive debug session against the connected cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, t, err := openEngine()
			if err != nil {
				return err
			}
			defer t.Close()

			loop, err := debugloop.New(eng, debugloop.Config{
				ISVAddress: isvAddr,
				DiskPaths:  disks,
				GDBPort:    gdbPort,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return loop.Run(ctx)
		},
	}
	cmd.Flags().Uint32Var(&isvAddr, "isv", 0, "IS-Viewer debug text buffer address")
	cmd.Flags().StringArrayVar(&disks, "disk", nil, "64DD disk image path (repeatable)")
	cmd.Flags().IntVar(&gdbPort, "gdb-port", 0, "TCP port to tunnel a GDB remote session over")
	return cmd
}
