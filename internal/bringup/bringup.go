package bringup

import (
	"io"
	"time"

	sc64 "github.com/flashcart64/sc64ctl"
)

// settleDelay is the pause after each bring-up step while the target's UART
// buffer drains before the next protocol begins.
const settleDelay = 500 * time.Millisecond

// Images bundles the chunks a bring-up flow needs, typically read from an
// update container carrying all five chunks.
type Images struct {
	Primer     []byte
	FPGA       []byte
	MCU        []byte
	Bootloader []byte
}

// Port is the raw serial connection bring-up drives directly, bypassing the
// normal framed link entirely until the main firmware is alive.
type Port interface {
	io.ReadWriter
	ResetInputBuffer() error
}

func settle(p Port) {
	time.Sleep(settleDelay)
	p.ResetInputBuffer()
}

// Run executes the full bring-up sequence over port: prime the MCU's RAM
// with the LCMXO2 primer stub, program the FPGA through it, then flash the
// MCU's own firmware and jump to it. It does not perform step 4 (the
// bootloader-only firmware update through the now-live main firmware); the
// caller does that once it has reopened a normal Transport against the same
// device.
func Run(port Port, images Images, progress sc64.Progress) error {
	s := &stm32{rw: port}

	if err := s.connect(DeviceIDSTM32G030XX); err != nil {
		return err
	}
	if err := s.loadRAMAndRun(images.Primer, progress); err != nil {
		return err
	}
	settle(port)

	p := &primer{rw: port}
	if err := p.connect(DeviceIDLCMXO27000HC); err != nil {
		return err
	}
	if err := p.loadFlashAndRun(images.FPGA, progress); err != nil {
		return err
	}
	settle(port)

	s = &stm32{rw: port}
	if err := s.connect(DeviceIDSTM32G030XX); err != nil {
		return err
	}
	if err := s.loadFlashAndRun(images.MCU, progress); err != nil {
		return err
	}
	settle(port)

	return nil
}
