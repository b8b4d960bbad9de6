package main

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flashcart64/sc64ctl/internal/bringup"
	"github.com/flashcart64/sc64ctl/internal/engine"
	"github.com/flashcart64/sc64ctl/internal/transport"
	"github.com/flashcart64/sc64ctl/internal/update"
)

// declineInterrupt traps Ctrl-C for the duration of the bring-up flow and
// refuses it: a half-flashed board is worse than an unresponsive terminal.
func declineInterrupt(cmd *cobra.Command) (stop func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sig:
				cmd.PrintErrln("bring-up in progress, ignoring interrupt")
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		signal.Stop(sig)
	}
}

func newBringupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bringup <update-image>",
		Short: "Prime a blank board's MCU and FPGA, then install its firmware",
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
			primerData, _ := img.Primer()
			fpgaData, _ := img.FPGA()
			mcuData, _ := img.MCU()
			bootloaderData, _ := img.Bootloader()

			port := viper.GetString("port")
			if port == "" {
				discovered, err := transport.DiscoverOne()
				if err != nil {
					return err
				}
				port = discovered
			}

			rawPort, err := transport.OpenRaw(port)
			if err != nil {
				return err
			}

			cmd.Println("Board bring-up will permanently flash this board. Type YES to continue:")
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(line) != "YES" {
				rawPort.Close()
				cmd.Println("bring-up aborted")
				return nil
			}

			stop := declineInterrupt(cmd)
			err = bringup.Run(rawPort, bringup.Images{
				Primer:     primerData,
				FPGA:       fpgaData,
				MCU:        mcuData,
				Bootloader: bootloaderData,
			}, progressBar(cmd))
			rawPort.Close()
			stop()
			if err != nil {
				return err
			}

			time.Sleep(500 * time.Millisecond)
			t, err := transport.Open(port)
			if err != nil {
				return err
			}
			defer t.Close()
			eng := engine.New(t)

			bootOnly := update.NewWriter()
			bootOnly.AddBootloader(bootloaderData)
			bootImage := bootOnly.Bytes()
			if err := eng.WriteMemory(engine.Firmware.Address, bootImage); err != nil {
				return err
			}
			if err := eng.UpdateFirmware(engine.Firmware.Address, uint32(len(bootImage)), progressBar(cmd)); err != nil {
				return err
			}
			cmd.Println("board bring-up complete")
			return nil
		},
	}
}
