package main

import (
	"os"

	"github.com/spf13/cobra"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/flashcart64/sc64ctl/internal/engine"
)

func progressBar(cmd *cobra.Command) sc64.Progress {
	return func(total, position int, description string) {
		if total <= 0 {
			return
		}
		pct := position * 100 / total
		cmd.Printf("\r%s: %d%%", description, pct)
		if position >= total {
			cmd.Println()
		}
	}
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload rom|save|ddipl <path>",
		Short: "Write a ROM, save, or 64DD IPL image to the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, path := args[0], args[1]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			eng, t, err := openEngine()
			if err != nil {
				return err
			}
			defer t.Close()

			switch kind {
			case "rom":
				return eng.UploadROM(data, true, progressBar(cmd))
			case "ddipl":
				return eng.UploadDDIPL(data, progressBar(cmd))
			case "save":
				st := engine.DetectSaveType(data)
				return eng.UploadSave(st, data)
			default:
				return sc64.NewValueError("unknown upload kind "+kind, nil)
			}
		},
	}
	return cmd
}
