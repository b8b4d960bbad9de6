package main

import (
	"github.com/spf13/cobra"

	"github.com/flashcart64/sc64ctl/internal/engine"
)

var configNames = []struct {
	name string
	id   engine.ConfigID
}{
	{"bootloader-switch", engine.BootloaderSwitch},
	{"rom-write-enable", engine.RomWriteEnable},
	{"rom-shadow-enable", engine.RomShadowEnable},
	{"dd-mode", engine.DDMode},
	{"isv-address", engine.ISVAddress},
	{"boot-mode", engine.BootMode},
	{"save-type", engine.SaveType},
	{"cic-seed", engine.CICSeed},
	{"tv-type", engine.TVType},
	{"dd-sd-enable", engine.DDSDEnable},
	{"dd-drive-type", engine.DDDriveType},
	{"dd-disk-state", engine.DDDiskState},
	{"button-state", engine.ButtonState},
	{"button-mode", engine.ButtonMode},
	{"rom-extended-enable", engine.RomExtendedEnable},
}

func newPrintStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Print every config register's current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, t, err := openEngine()
			if err != nil {
				return err
			}
			defer t.Close()

			id, err := eng.Identify()
			if err != nil {
				return err
			}
			cmd.Printf("identify: %s\n", id)

			for _, c := range configNames {
				v, err := eng.GetConfig(c.id)
				if err != nil {
					return err
				}
				cmd.Printf("%-20s %d\n", c.name, v)
			}
			return nil
		},
	}
}
