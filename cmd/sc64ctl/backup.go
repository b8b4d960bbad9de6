package main

import (
	"os"

	"github.com/spf13/cobra"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/flashcart64/sc64ctl/internal/engine"
)

func newBackupCmd() *cobra.Command {
	var length uint32
	var saveType string

	cmd := &cobra.Command{
		Use:   "backup rom|save|ddipl <path>",
		Short: "Read a ROM, save, or 64DD IPL image back from the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, path := args[0], args[1]
			eng, t, err := openEngine()
			if err != nil {
				return err
			}
			defer t.Close()

			var data []byte
			switch kind {
			case "rom":
				if length == 0 {
					return sc64.NewValueError("--length is required for ROM backup", nil)
				}
				data, err = eng.ReadMemory(engine.SDRAM.Address, length)
			case "ddipl":
				if length == 0 {
					length = engine.DDIPL.Length
				}
				data, err = eng.ReadMemory(engine.DDIPL.Address, length)
			case "save":
				st, ok := saveTypeByName[saveType]
				if !ok {
					return sc64.NewValueError("unknown or missing --save-type", nil)
				}
				data, err = eng.DownloadSave(st)
			default:
				return sc64.NewValueError("unknown backup kind "+kind, nil)
			}
			if err != nil {
				return err
			}
			return os.WriteFile(path, data, 0o644)
		},
	}
	cmd.Flags().Uint32Var(&length, "length", 0, "number of bytes to read")
	cmd.Flags().StringVar(&saveType, "save-type", "", "save type: none|eeprom4k|eeprom16k|sram|flashram|sram-banked")
	return cmd
}

var saveTypeByName = map[string]engine.SaveType{
	"none":        engine.SaveNone,
	"eeprom4k":    engine.SaveEEPROM4K,
	"eeprom16k":   engine.SaveEEPROM16K,
	"sram":        engine.SaveSRAM,
	"flashram":    engine.SaveFlashRAM,
	"sram-banked": engine.SaveSRAMBanked,
}
