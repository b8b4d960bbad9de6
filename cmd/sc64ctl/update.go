package main

import (
	"os"

	"github.com/spf13/cobra"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/flashcart64/sc64ctl/internal/engine"
	"github.com/flashcart64/sc64ctl/internal/update"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Apply, build, or back up a firmware update image",
	}
	cmd.AddCommand(newUpdateRunCmd(), newUpdateBuildCmd(), newUpdateBackupCmd())
	return cmd
}

func newUpdateRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <image>",
		Short: "Apply a firmware update image to the connected cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := update.Parse(raw)
			if err != nil {
				return err
			}
			if err := img.RequireAll(); err != nil {
				return err
			}

			eng, t, err := openEngine()
			if err != nil {
				return err
			}
			defer t.Close()

			if err := eng.WriteMemory(engine.Firmware.Address, raw); err != nil {
				return err
			}
			if err := eng.UpdateFirmware(engine.Firmware.Address, uint32(len(raw)), progressBar(cmd)); err != nil {
				return err
			}
			cmd.Println("firmware update complete, device is rebooting")
			return nil
		},
	}
}

func newUpdateBuildCmd() *cobra.Command {
	var infoText, mcuPath, fpgaPath, bootloaderPath, primerPath, jedecPath, outPath string

	cmd := &cobra.Command{
		Use:   "build --out <image>",
		Short: "Assemble a firmware update image from component files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return sc64.NewValueError("--out is required", nil)
			}
			w := update.NewWriter()
			if infoText != "" {
				w.AddUpdateInfo(infoText)
			}
			if mcuPath != "" {
				data, err := os.ReadFile(mcuPath)
				if err != nil {
					return err
				}
				w.AddMCU(data)
			}
			if jedecPath != "" {
				f, err := os.Open(jedecPath)
				if err != nil {
					return err
				}
				defer f.Close()
				fuses, err := update.ParseJedec(f)
				if err != nil {
					return err
				}
				w.AddFPGA(fuses)
			} else if fpgaPath != "" {
				data, err := os.ReadFile(fpgaPath)
				if err != nil {
					return err
				}
				w.AddFPGA(data)
			}
			if bootloaderPath != "" {
				data, err := os.ReadFile(bootloaderPath)
				if err != nil {
					return err
				}
				w.AddBootloader(data)
			}
			if primerPath != "" {
				data, err := os.ReadFile(primerPath)
				if err != nil {
					return err
				}
				w.AddPrimer(data)
			}
			return os.WriteFile(outPath, w.Bytes(), 0o644)
		},
	}
	cmd.Flags().StringVar(&infoText, "info", "", "UPDATE_INFO text")
	cmd.Flags().StringVar(&mcuPath, "mcu", "", "MCU firmware image path")
	cmd.Flags().StringVar(&fpgaPath, "fpga", "", "FPGA bitstream path (raw)")
	cmd.Flags().StringVar(&jedecPath, "fpga-jedec", "", "FPGA fuse map path (.jed, converted to raw fuse data)")
	cmd.Flags().StringVar(&bootloaderPath, "bootloader", "", "bootloader image path")
	cmd.Flags().StringVar(&primerPath, "primer", "", "bring-up primer stub path")
	cmd.Flags().StringVar(&outPath, "out", "", "output update image path")
	return cmd
}

func newUpdateBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <path>",
		Short: "Read the currently staged firmware image back from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, t, err := openEngine()
			if err != nil {
				return err
			}
			defer t.Close()
			data, err := eng.BackupFirmware(engine.Firmware.Address)
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], data, 0o644)
		},
	}
}
